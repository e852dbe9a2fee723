package pipeline

import (
	"context"
	"io"
	"io/ioutil"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/lbogdanov/stethoscope/pkg/db"
	"github.com/lbogdanov/stethoscope/pkg/model"
	"github.com/lbogdanov/stethoscope/pkg/remote"
)

const storageURL = "https://storage.local/"

type fakeStorage struct {
	lock      sync.Mutex
	puts      []string
	gets      []string
	deleted   []string
	uploads   []upload
	deleteErr map[string]error
	putErr    error
}

func (f *fakeStorage) Create(_ context.Context, key string, reader io.Reader, contentType string) (int64, error) {
	data, err := ioutil.ReadAll(reader)
	if err != nil {
		return 0, err
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	f.uploads = append(f.uploads, upload{key: key, data: string(data), contentType: contentType})
	return int64(len(data)), nil
}

func (f *fakeStorage) PresignPut(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.putErr != nil {
		return "", f.putErr
	}

	f.puts = append(f.puts, key)
	return storageURL + key + "?method=put&ttl=" + ttl.String(), nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.gets = append(f.gets, key)
	return storageURL + key + "?method=get&ttl=" + ttl.String(), nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := f.deleteErr[key]; err != nil {
		return err
	}

	f.deleted = append(f.deleted, key)
	return nil
}

type upload struct {
	key         string
	data        string
	contentType string
}

type fakeFetcher struct {
	lock   sync.Mutex
	err    error
	urls   []string
	closed int
}

type closeCounter struct {
	io.Reader
	fetcher *fakeFetcher
}

func (c *closeCounter) Close() error {
	c.fetcher.lock.Lock()
	defer c.fetcher.lock.Unlock()

	c.fetcher.closed++
	return nil
}

func (f *fakeFetcher) Fetch(_ context.Context, link string) (*model.Audio, io.ReadCloser, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.urls = append(f.urls, link)
	if f.err != nil {
		return nil, nil, f.err
	}

	audio := &model.Audio{
		ID:           "dQw4w9WgXcQ",
		Title:        "Never Gonna Give You Up",
		Description:  "Official video",
		Duration:     212,
		Size:         9,
		Published:    time.Date(2009, 10, 25, 6, 57, 33, 0, time.UTC),
		ThumbnailURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		MimeType:     "audio/mp4",
	}

	return audio, &closeCounter{Reader: strings.NewReader("m4a-bytes"), fetcher: f}, nil
}

type fakeTagger struct {
	lock  sync.Mutex
	infos map[string]*remote.FileInfo
	order []string
}

func (f *fakeTagger) Read(_ context.Context, link string) (*remote.FileInfo, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return nil, err
	}

	key := strings.TrimPrefix(parsed.Path, "/")

	f.lock.Lock()
	defer f.lock.Unlock()

	f.order = append(f.order, key)

	info, ok := f.infos[key]
	if !ok {
		return nil, errors.Wrapf(model.ErrUpstream, "no object %s", key)
	}
	return info, nil
}

// hookedCatalog runs beforeCreate ahead of every insert.
type hookedCatalog struct {
	*db.Catalog
	beforeCreate func(entry *model.Entry)
}

func (c *hookedCatalog) CreateEntry(ctx context.Context, entry *model.Entry) error {
	if c.beforeCreate != nil {
		c.beforeCreate(entry)
	}
	return c.Catalog.CreateEntry(ctx, entry)
}

type fixture struct {
	service *Service
	catalog *db.Catalog
	ledger  *db.Ledger
	storage *fakeStorage
	fetcher *fakeFetcher
	tagger  *fakeTagger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()

	catalog, err := db.NewCatalog(&db.Config{Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = catalog.Close() })

	ledger, err := db.NewLedger(&db.Config{Dir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })

	f := &fixture{
		catalog: catalog,
		ledger:  ledger,
		storage: &fakeStorage{deleteErr: map[string]error{}},
		fetcher: &fakeFetcher{},
		tagger:  &fakeTagger{infos: map[string]*remote.FileInfo{}},
	}

	f.service = f.newService()
	return f
}

func (f *fixture) newService() *Service {
	return New(Config{BookThumbnail: "https://example.com/book.png", MaxAttempts: 3}, Deps{
		Catalog: f.catalog,
		Ledger:  f.ledger,
		Storage: f.storage,
		Fetcher: f.fetcher,
		Tagger:  f.tagger,
	})
}
