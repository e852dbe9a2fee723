//go:generate mockgen -source=deps.go -destination=deps_mock_test.go -package=server

package server

import (
	"context"

	itunes "github.com/eduncan911/podcast"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

type files interface {
	RegisterYoutube(ctx context.Context, url string) (*model.Accepted, error)
	StartBookUpload(ctx context.Context) (*model.Accepted, error)
	UploadBookChapter(ctx context.Context, bookID string, filename string) (*model.ChapterUpload, error)
	CompleteBookUpload(ctx context.Context, bookID string) (*model.Accepted, error)
	DeleteEntry(ctx context.Context, entryID string) error
	ListFiles(ctx context.Context, ids []string) ([]*model.Listing, error)
	MediaURL(ctx context.Context, key string) (string, error)
	Tasks(ctx context.Context) ([]*model.Task, error)
	Task(ctx context.Context, taskID string) (*model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	Queued() int
}

type feeds interface {
	Youtube(ctx context.Context) (*itunes.Podcast, error)
	Book(ctx context.Context, bookID string) (*itunes.Podcast, error)
	OPML(ctx context.Context) (string, error)
}
