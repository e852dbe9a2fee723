package remote

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/dhowden/tag"
	"github.com/h2non/filetype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// filetype needs at most this many leading bytes to detect a format.
const sniffLen = 262

// Prober measures the duration of a remote media file in seconds.
type Prober interface {
	Duration(ctx context.Context, url string) (float64, error)
}

// FileInfo describes a remote audio file.
type FileInfo struct {
	Size     int64
	Duration int64
	MimeType string
	Title    string
	Artist   string
	Album    string
}

// Reader pulls metadata out of remote audio files without downloading them.
type Reader struct {
	client *http.Client
	prober Prober
}

func NewReader(client *http.Client, prober Prober) *Reader {
	if client == nil {
		client = http.DefaultClient
	}

	return &Reader{client: client, prober: prober}
}

// Read returns the size, duration, MIME type and tags of the file at url.
// The url is usually a short lived presigned link.
func (r *Reader) Read(ctx context.Context, url string) (*FileInfo, error) {
	var (
		info     FileInfo
		duration float64
	)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		duration, err = r.prober.Duration(groupCtx, url)
		return err
	})

	group.Go(func() error {
		return r.readTags(groupCtx, url, &info)
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	info.Duration = int64(duration)
	return &info, nil
}

func (r *Reader) readTags(ctx context.Context, url string, info *FileInfo) error {
	file, err := Open(ctx, r.client, url)
	if err != nil {
		return err
	}

	info.Size = file.Size()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return errors.Wrap(err, "failed to read file header")
	}

	info.MimeType = detectType(head[:n], file.ContentType())

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	meta, err := tag.ReadFrom(file)
	if err == tag.ErrNoTagsFound {
		log.Debugf("no tags found in %s", info.MimeType)
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "failed to read tags")
	}

	info.Title = meta.Title()
	info.Artist = meta.Artist()
	info.Album = meta.Album()
	return nil
}

// detectType prefers a sniffed audio type, then an audio Content-Type from the server.
func detectType(head []byte, contentType string) string {
	kind, _ := filetype.Match(head)
	known := kind != filetype.Unknown

	if known && kind.MIME.Type == "audio" {
		return kind.MIME.Value
	}

	if mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]); strings.HasPrefix(mediaType, "audio/") {
		return mediaType
	}

	if known {
		return kind.MIME.Value
	}

	if contentType != "" {
		return contentType
	}

	return "application/octet-stream"
}
