//go:generate mockgen -source=deps.go -destination=deps_mock_test.go -package=feed

package feed

import (
	"context"

	"github.com/lbogdanov/stethoscope/pkg/model"
)

// Catalog is the read side of the catalog the feeds are rendered from.
type Catalog interface {
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	ListStandalone(ctx context.Context) ([]*model.Entry, error)
	ListChapters(ctx context.Context, bookID string) ([]*model.Entry, error)
	ListRoots(ctx context.Context, ids []string) ([]*model.Listing, error)
}
