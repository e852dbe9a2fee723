package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

// Run processes background tasks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	log.Infof("running %d task worker(s)", s.config.Workers)
	return s.runner.Run(ctx, s.process)
}

// Resume queues tasks left pending by a previous run.
func (s *Service) Resume(ctx context.Context) (int, error) {
	purged, err := s.ledger.PurgeMarkers(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge stale in-flight markers")
	}
	if purged > 0 {
		log.Warnf("purged %d stale in-flight marker(s)", purged)
	}

	var pending []string
	if err := s.ledger.WalkTasks(ctx, func(task *model.Task) error {
		if task.Status == model.TaskPending {
			pending = append(pending, task.ID)
		}
		return nil
	}); err != nil {
		return 0, err
	}

	resumed := 0
	for _, taskID := range pending {
		if s.runner.Enqueue(taskID) {
			resumed++
		}
	}

	if resumed > 0 {
		log.Infof("resumed %d pending task(s)", resumed)
	}

	return resumed, nil
}

// RetryFailed queues failed tasks that have attempts left, plus pending tasks that
// did not fit into the queue.
func (s *Service) RetryFailed(ctx context.Context) (int, error) {
	var candidates []*model.Task
	if err := s.ledger.WalkTasks(ctx, func(task *model.Task) error {
		switch {
		case task.Status == model.TaskPending:
			candidates = append(candidates, task)
		case task.Status == model.TaskFailed && task.Attempts < s.config.MaxAttempts:
			candidates = append(candidates, task)
		}
		return nil
	}); err != nil {
		return 0, err
	}

	retried := 0
	for _, task := range candidates {
		logger := log.WithFields(log.Fields{
			"task_id":  task.ID,
			"entry_id": task.EntryID,
		})

		if task.Status == model.TaskFailed {
			stale, err := s.stale(ctx, task)
			if err != nil {
				return retried, err
			}
			if stale {
				logger.Debug("task is obsolete, skipping retry")
				continue
			}

			err = s.ledger.UpdateTask(task.ID, func(task *model.Task) error {
				task.Status = model.TaskPending
				task.Touch(s.now())
				return nil
			})
			if errors.Is(err, model.ErrConflict) {
				logger.Debug("another task is in flight, skipping retry")
				continue
			} else if err != nil {
				return retried, err
			}

			logger.Infof("retrying task, attempt %d of %d", task.Attempts+1, s.config.MaxAttempts)
		}

		if s.runner.Enqueue(task.ID) {
			retried++
		}
	}

	return retried, nil
}

// stale reports whether retrying a failed task can no longer change anything.
func (s *Service) stale(ctx context.Context, task *model.Task) (bool, error) {
	switch task.Kind {
	case model.TaskYoutubeFetch:
		// A later registration may have succeeded in the meantime
		return s.catalog.Exists(ctx, task.EntryID)
	case model.TaskBookTagging:
		// The book was deleted or tagged by a later task
		book, err := s.catalog.GetEntry(ctx, task.EntryID)
		if errors.Is(err, model.ErrNotFound) {
			return true, nil
		} else if err != nil {
			return false, err
		}
		return !book.Pending(), nil
	default:
		return false, nil
	}
}

// Tasks returns all task records, most recent first.
func (s *Service) Tasks(ctx context.Context) ([]*model.Task, error) {
	tasks := []*model.Task{}
	if err := s.ledger.WalkTasks(ctx, func(task *model.Task) error {
		tasks = append(tasks, task)
		return nil
	}); err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Time().After(tasks[j].CreatedAt.Time())
	})

	return tasks, nil
}

// Task returns a single task record.
func (s *Service) Task(ctx context.Context, taskID string) (*model.Task, error) {
	task, err := s.ledger.GetTask(ctx, taskID)
	if err != nil {
		return nil, errors.Wrapf(err, "task %q", taskID)
	}
	return task, nil
}

// Queued returns the number of tasks waiting in the queue or running.
func (s *Service) Queued() int {
	return s.runner.Pending()
}

// DeleteTask removes a finished task record. Pending tasks are still owned by the
// runner or the next sweep and can't be deleted.
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	task, err := s.Task(ctx, taskID)
	if err != nil {
		return err
	}

	if task.Status == model.TaskPending {
		return errors.Wrapf(model.ErrInvalidState, "task %q is still pending", taskID)
	}

	if err := s.ledger.DeleteTask(ctx, taskID); err != nil {
		return errors.Wrapf(err, "task %q", taskID)
	}

	log.WithFields(log.Fields{
		"task_id":  taskID,
		"entry_id": task.EntryID,
	}).Info("deleted task")
	return nil
}

func (s *Service) createTask(ctx context.Context, kind model.TaskKind, entryID string, url string) (*model.Task, error) {
	taskID, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := model.Timestamp(s.now().UTC())
	task := &model.Task{
		ID:        taskID,
		Kind:      kind,
		EntryID:   entryID,
		URL:       url,
		Status:    model.TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.ledger.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	s.runner.Enqueue(task.ID)
	return task, nil
}

// process runs one task and records the outcome. Failures are logged and kept in
// the ledger, they never reach the client that scheduled the task.
func (s *Service) process(ctx context.Context, taskID string) {
	logger := log.WithField("task_id", taskID)

	task, err := s.ledger.GetTask(ctx, taskID)
	if err != nil {
		logger.WithError(err).Error("failed to load task")
		return
	}

	if !task.InFlight() {
		logger.Debugf("task is %s, skipping", task.Status)
		return
	}

	logger = logger.WithFields(log.Fields{
		"kind":     task.Kind,
		"entry_id": task.EntryID,
	})
	logger.Info("-> running task")

	started := s.now()
	runErr := s.execute(ctx, task)

	if runErr != nil && ctx.Err() != nil {
		// Shutting down, leave the task pending so it is resumed on the next start
		logger.WithError(runErr).Warn("task interrupted")
		return
	}

	if err := s.ledger.UpdateTask(taskID, func(task *model.Task) error {
		task.Attempts++
		task.Touch(s.now())

		if runErr != nil {
			task.Status = model.TaskFailed
			task.Error = runErr.Error()
		} else {
			task.Status = model.TaskComplete
			task.Error = ""
		}
		return nil
	}); err != nil {
		logger.WithError(err).Error("failed to update task")
		return
	}

	s.runHooks(ctx, taskID)

	if runErr != nil {
		logger.WithError(runErr).Error("task failed")
		return
	}

	logger.Infof("task completed in %s", s.now().Sub(started))
}

func (s *Service) execute(ctx context.Context, task *model.Task) error {
	switch task.Kind {
	case model.TaskYoutubeFetch:
		return s.fetchYoutube(ctx, task)
	case model.TaskBookTagging:
		return s.tagBook(ctx, task.EntryID)
	default:
		return errors.Errorf("unsupported task kind %q", task.Kind)
	}
}

// fetchYoutube downloads the audio, uploads it under the video id and only then
// inserts the finalized catalog entry.
func (s *Service) fetchYoutube(ctx context.Context, task *model.Task) error {
	audio, reader, err := s.fetcher.Fetch(ctx, task.URL)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s", task.URL)
	}
	defer reader.Close()

	if audio.ID != "" && audio.ID != task.EntryID {
		log.WithField("task_id", task.ID).Warnf("fetched video id %q differs from %q", audio.ID, task.EntryID)
	}

	key := model.ObjectKey("", task.EntryID)
	written, err := s.storage.Create(ctx, key, reader, audio.MimeType)
	if err != nil {
		return errors.Wrapf(err, "failed to upload %s", key)
	}

	published := audio.Published
	if published.IsZero() {
		published = s.now()
	}

	return s.catalog.CreateEntry(ctx, &model.Entry{
		ID:           task.EntryID,
		Filename:     task.URL,
		Title:        model.String(audio.Title),
		Description:  model.String(audio.Description),
		Created:      s.now().UTC(),
		Published:    published.UTC(),
		AudioSize:    written,
		AudioType:    audio.MimeType,
		Duration:     audio.Duration,
		ThumbnailURL: audio.ThumbnailURL,
	})
}

// tagBook reads the tags of every chapter in insertion order, then writes the
// aggregate to the book. The book title and description come from the album and
// artist tags of the last chapter read.
func (s *Service) tagBook(ctx context.Context, bookID string) error {
	chapters, err := s.catalog.Children(ctx, bookID)
	if err != nil {
		return err
	}

	if len(chapters) == 0 {
		return errors.Wrapf(model.ErrNotFound, "book %q has no chapters", bookID)
	}

	var (
		artist, album string
		book          = model.ChapterInfo{}
	)

	for _, chapter := range chapters {
		url, err := s.storage.PresignGet(ctx, chapter.Key(), s.config.DownloadTTL)
		if err != nil {
			return errors.Wrapf(err, "failed to sign %s", chapter.Key())
		}

		info, err := s.tagger.Read(ctx, url)
		if err != nil {
			return errors.Wrapf(err, "failed to read tags of %s", chapter.Key())
		}

		artist, album = info.Artist, info.Album

		title := info.Title
		if title == "" {
			title = chapter.Filename
		}

		chapterInfo := &model.ChapterInfo{
			Title:       title,
			Description: fmt.Sprintf("%s. %s", info.Artist, info.Album),
			Duration:    info.Duration,
			AudioSize:   info.Size,
			AudioType:   info.MimeType,
		}

		if err := s.catalog.UpdateChapterInfo(ctx, chapter.ID, chapterInfo); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"book_id":    bookID,
			"chapter_id": chapter.ID,
			"duration":   info.Duration,
		}).Debugf("tagged chapter %q", title)

		book.Duration += info.Duration
		book.AudioSize += info.Size
		book.AudioType = info.MimeType
	}

	book.Title = album
	book.Description = artist

	return s.catalog.FinalizeBook(ctx, bookID, &book)
}

func (s *Service) runHooks(ctx context.Context, taskID string) {
	if len(s.config.Hooks) == 0 {
		return
	}

	task, err := s.ledger.GetTask(ctx, taskID)
	if err != nil {
		log.WithError(err).WithField("task_id", taskID).Error("failed to load task for hooks")
		return
	}

	env := hookEnv(task)
	for i, hook := range s.config.Hooks {
		if err := hook.Invoke(ctx, env); err != nil {
			log.WithError(err).WithField("task_id", taskID).Errorf("hook %d failed", i)
		}
	}
}
