package pipeline

import (
	"context"
	"io"

	"github.com/lbogdanov/stethoscope/pkg/model"
	"github.com/lbogdanov/stethoscope/pkg/remote"
)

// Catalog is the persistent catalog of entries.
type Catalog interface {
	CreateEntry(ctx context.Context, entry *model.Entry) error
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	GetEntryWithChildren(ctx context.Context, id string) (*model.Entry, error)
	Exists(ctx context.Context, id string) (bool, error)
	CountChildren(ctx context.Context, id string) (int, error)
	ListRoots(ctx context.Context, ids []string) ([]*model.Listing, error)
	Children(ctx context.Context, bookID string) ([]*model.Entry, error)
	UpdateChapterInfo(ctx context.Context, id string, info *model.ChapterInfo) error
	FinalizeBook(ctx context.Context, bookID string, info *model.ChapterInfo) error
	DeleteEntry(ctx context.Context, id string) error
}

// Ledger keeps background task records.
type Ledger interface {
	CreateTask(ctx context.Context, task *model.Task) error
	GetTask(ctx context.Context, taskID string) (*model.Task, error)
	InFlight(ctx context.Context, entryID string) (string, bool, error)
	UpdateTask(taskID string, cb func(task *model.Task) error) error
	WalkTasks(ctx context.Context, cb func(task *model.Task) error) error
	DeleteTask(ctx context.Context, taskID string) error
	PurgeMarkers(ctx context.Context) (int, error)
}

// Fetcher downloads the audio of a youtube video.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*model.Audio, io.ReadCloser, error)
}

// TagReader reads metadata of a remote audio file.
type TagReader interface {
	Read(ctx context.Context, url string) (*remote.FileInfo, error)
}
