package adapter

import (
	"context"

	"photo-market/internal/domain/model"
)

// ObjectStorage keeps ad photos and returns their public URLs.
type ObjectStorage interface {
	Upload(ctx context.Context, blob *model.ImageBlob) (url string, err error)
	DeleteMany(ctx context.Context, urls []string) error
}
