package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lbogdanov/stethoscope/pkg/fs"
	"github.com/lbogdanov/stethoscope/pkg/id"
	"github.com/lbogdanov/stethoscope/pkg/link"
	"github.com/lbogdanov/stethoscope/pkg/model"
)

// Config tunes the pipeline and its background tasks.
type Config struct {
	// UploadTTL is how long a chapter upload link stays valid
	UploadTTL time.Duration
	// DownloadTTL is how long media and tagging links stay valid
	DownloadTTL time.Duration
	// BookThumbnail is the placeholder cover of new books
	BookThumbnail string
	// Workers is the number of concurrent background tasks
	Workers int
	// QueueSize bounds the number of queued background tasks
	QueueSize int
	// MaxAttempts is how many times a failed task is run before giving up
	MaxAttempts int
	// Hooks run after every finished task
	Hooks []*ExecHook
}

// Service runs the ingestion workflows over the catalog, the task ledger and the object store.
type Service struct {
	config  Config
	catalog Catalog
	ledger  Ledger
	storage fs.Storage
	fetcher Fetcher
	tagger  TagReader
	runner  *Runner

	now   func() time.Time
	newID func() (string, error)
}

// Deps are the collaborators of the pipeline.
type Deps struct {
	Catalog Catalog
	Ledger  Ledger
	Storage fs.Storage
	Fetcher Fetcher
	Tagger  TagReader
}

func New(config Config, deps Deps) *Service {
	if config.UploadTTL <= 0 {
		config.UploadTTL = model.DefaultUploadTTL
	}
	if config.DownloadTTL <= 0 {
		config.DownloadTTL = model.DefaultDownloadTTL
	}
	if config.Workers <= 0 {
		config.Workers = model.DefaultWorkers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = model.DefaultQueueSize
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = model.DefaultMaxAttempts
	}

	return &Service{
		config:  config,
		catalog: deps.Catalog,
		ledger:  deps.Ledger,
		storage: deps.Storage,
		fetcher: deps.Fetcher,
		tagger:  deps.Tagger,
		runner:  NewRunner(config.Workers, config.QueueSize),
		now:     time.Now,
		newID:   id.Generate,
	}
}

// RegisterYoutube accepts a youtube link for download. The entry appears in the
// catalog only after the background fetch completes.
func (s *Service) RegisterYoutube(ctx context.Context, url string) (*model.Accepted, error) {
	videoID, err := link.ParseYoutube(url)
	if err != nil {
		return nil, err
	}

	exists, err := s.catalog.Exists(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(model.ErrConflict, "%q is already in the catalog", videoID)
	}

	task, err := s.createTask(ctx, model.TaskYoutubeFetch, videoID, url)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"entry_id": videoID,
		"task_id":  task.ID,
	}).Infof("registered youtube video %s", url)

	return &model.Accepted{ID: videoID, Type: model.TypeYoutube, TaskID: task.ID}, nil
}

// StartBookUpload creates an empty pending book.
func (s *Service) StartBookUpload(ctx context.Context) (*model.Accepted, error) {
	now := s.now().UTC()

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		bookID, err := s.newID()
		if err != nil {
			return nil, err
		}

		lastErr = s.catalog.CreateEntry(ctx, &model.Entry{
			ID:           bookID,
			Filename:     bookID,
			Created:      now,
			Published:    now,
			ThumbnailURL: s.config.BookThumbnail,
		})

		if lastErr == nil {
			log.WithField("book_id", bookID).Info("started book upload")
			return &model.Accepted{ID: bookID}, nil
		}

		if !errors.Is(lastErr, model.ErrConflict) {
			return nil, lastErr
		}
	}

	return nil, lastErr
}

// UploadBookChapter adds a pending chapter to a book and returns a link the client
// uploads the chapter bytes to.
func (s *Service) UploadBookChapter(ctx context.Context, bookID string, filename string) (*model.ChapterUpload, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, errors.Wrap(model.ErrInvalidInput, "filename is required")
	}

	if err := s.acceptsChapters(ctx, bookID); err != nil {
		return nil, err
	}

	chapterID, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	chapter := &model.Entry{
		ID:        chapterID,
		ParentID:  bookID,
		Filename:  filename,
		Created:   now,
		Published: now,
	}

	if err := s.catalog.CreateEntry(ctx, chapter); err != nil {
		return nil, err
	}

	// Tagging may have been scheduled between the check and the insert
	if err := s.acceptsChapters(ctx, bookID); err != nil {
		s.dropChapter(ctx, chapterID)
		return nil, err
	}

	url, err := s.storage.PresignPut(ctx, chapter.Key(), s.config.UploadTTL)
	if err != nil {
		// No client can upload without the link
		s.dropChapter(ctx, chapterID)
		return nil, err
	}

	log.WithFields(log.Fields{
		"book_id":    bookID,
		"chapter_id": chapterID,
	}).Infof("added chapter %q", filename)

	return &model.ChapterUpload{ID: chapterID, URL: url}, nil
}

// acceptsChapters fails unless bookID is a pending book with no tagging task in flight.
func (s *Service) acceptsChapters(ctx context.Context, bookID string) error {
	book, err := s.book(ctx, bookID)
	if err != nil {
		return err
	}

	if !book.Pending() {
		return errors.Wrapf(model.ErrInvalidState, "book %q is already complete", bookID)
	}

	if taskID, ok, err := s.ledger.InFlight(ctx, bookID); err != nil {
		return err
	} else if ok {
		return errors.Wrapf(model.ErrInvalidState, "book %q is being tagged by task %q", bookID, taskID)
	}

	return nil
}

func (s *Service) dropChapter(ctx context.Context, chapterID string) {
	if err := s.catalog.DeleteEntry(ctx, chapterID); err != nil {
		log.WithError(err).WithField("chapter_id", chapterID).Error("failed to drop chapter")
	}
}

// CompleteBookUpload schedules tagging of all chapters of a book. A book without
// chapters is deleted.
func (s *Service) CompleteBookUpload(ctx context.Context, bookID string) (*model.Accepted, error) {
	book, err := s.book(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if !book.Pending() {
		return nil, errors.Wrapf(model.ErrInvalidState, "book %q is already complete", bookID)
	}

	count, err := s.catalog.CountChildren(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		if err := s.catalog.DeleteEntry(ctx, bookID); err != nil {
			return nil, err
		}

		log.WithField("book_id", bookID).Info("deleted book without chapters")
		return nil, errors.Wrapf(model.ErrInvalidState, "book %q has no chapters", bookID)
	}

	task, err := s.createTask(ctx, model.TaskBookTagging, bookID, "")
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"book_id":  bookID,
		"task_id":  task.ID,
		"chapters": count,
	}).Info("completed book upload")

	return &model.Accepted{ID: bookID, Type: model.TypeAudiobook, TaskID: task.ID}, nil
}

// DeleteEntry removes all objects of an entry and then the entry with its chapters.
// The catalog is left untouched if any object delete fails.
func (s *Service) DeleteEntry(ctx context.Context, entryID string) error {
	entry, err := s.catalog.GetEntryWithChildren(ctx, entryID)
	if err != nil {
		return err
	}

	keys := []string{entry.Key()}
	if len(entry.Children) > 0 {
		keys = keys[:0]
		for _, child := range entry.Children {
			keys = append(keys, child.Key())
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		group.Go(func() error {
			log.WithField("key", key).Debug("deleting object")
			return s.storage.Delete(groupCtx, key)
		})
	}

	if err := group.Wait(); err != nil {
		return errors.Wrapf(err, "failed to delete objects of %q", entryID)
	}

	if err := s.catalog.DeleteEntry(ctx, entryID); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"entry_id": entryID,
		"objects":  len(keys),
	}).Info("deleted entry")
	return nil
}

// ListFiles returns finalized root entries, optionally restricted to ids.
func (s *Service) ListFiles(ctx context.Context, ids []string) ([]*model.Listing, error) {
	files, err := s.catalog.ListRoots(ctx, ids)
	if err != nil {
		return nil, err
	}

	if files == nil {
		files = []*model.Listing{}
	}

	return files, nil
}

// MediaURL mints a fresh download link for an object key, either a bare id or book/chapter.
func (s *Service) MediaURL(ctx context.Context, key string) (string, error) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	if len(parts) > 2 {
		return "", errors.Wrapf(model.ErrInvalidInput, "invalid media key %q", key)
	}

	for _, part := range parts {
		if !id.Valid(part) {
			return "", errors.Wrapf(model.ErrInvalidInput, "invalid media key %q", key)
		}
	}

	return s.storage.PresignGet(ctx, strings.Join(parts, "/"), s.config.DownloadTTL)
}

func (s *Service) book(ctx context.Context, bookID string) (*model.Entry, error) {
	book, err := s.catalog.GetEntry(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if book.IsChapter() {
		return nil, errors.Wrapf(model.ErrInvalidInput, "%q is a chapter, not a book", bookID)
	}

	return book, nil
}
