package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"

	"photo-market/internal/config"
	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/adapter"
	"photo-market/internal/infra/metrics"
)

var _ adapter.ObjectStorage = (*SupabaseStorage)(nil)

// bucketAPI is the subset of the storage-go client used here.
type bucketAPI interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	RemoveFile(bucketId string, paths []string) ([]storage_go.FileUploadResponse, error)
	GetPublicUrl(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse
}

// SupabaseStorage stores ad photos in a public Supabase bucket under
// <folder>/<ulid><ext>.
type SupabaseStorage struct {
	api    bucketAPI
	bucket string
	folder string
	log    *zerolog.Logger
	now    func() time.Time
}

func NewSupabaseStorage(cfg config.StorageConfig, logger *zerolog.Logger) (*SupabaseStorage, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, errors.New("storage: supabase url and key are required")
	}
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: create supabase client: %w", err)
	}
	return newSupabaseStorage(client.Storage, cfg.Bucket, cfg.Folder, logger), nil
}

func newSupabaseStorage(api bucketAPI, bucket, folder string, logger *zerolog.Logger) *SupabaseStorage {
	return &SupabaseStorage{
		api:    api,
		bucket: bucket,
		folder: strings.Trim(folder, "/"),
		log:    logger,
		now:    time.Now,
	}
}

func (s *SupabaseStorage) objectKey(blob *model.ImageBlob) string {
	ext := strings.ToLower(path.Ext(blob.Filename))
	if ext == "" {
		ext = extForMime(blob.MimeType)
	}
	id := ulid.MustNew(ulid.Timestamp(s.now()), ulid.DefaultEntropy())
	if s.folder == "" {
		return id.String() + ext
	}
	return s.folder + "/" + id.String() + ext
}

func extForMime(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}

// Upload stores the blob and returns its public URL.
func (s *SupabaseStorage) Upload(ctx context.Context, blob *model.ImageBlob) (string, error) {
	if blob == nil || len(blob.Content) == 0 {
		return "", errors.New("storage: empty image")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := s.objectKey(blob)
	contentType := blob.MimeType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	upsert := false

	start := time.Now()
	_, err := s.api.UploadFile(s.bucket, key, bytes.NewReader(blob.Content), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	metrics.ObserveStorageUpload(time.Since(start), err == nil)
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}

	publicURL := s.api.GetPublicUrl(s.bucket, key).SignedURL
	s.log.Debug().Str("key", key).Int("size", len(blob.Content)).Msg("image uploaded")
	return publicURL, nil
}

// DeleteMany removes the objects behind the given public URLs. URLs outside
// the bucket are skipped.
func (s *SupabaseStorage) DeleteMany(ctx context.Context, urls []string) error {
	keys := make([]string, 0, len(urls))
	for _, u := range urls {
		if key, ok := ObjectKeyFromURL(u, s.bucket); ok {
			keys = append(keys, key)
		} else if u != "" {
			s.log.Warn().Str("url", u).Msg("not an object of this bucket; skipping delete")
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.api.RemoveFile(s.bucket, keys); err != nil {
		return fmt.Errorf("storage: remove %d objects: %w", len(keys), err)
	}
	return nil
}

// ObjectKeyFromURL extracts the object path from a public bucket URL of the
// form .../object/public/<bucket>/<key>.
func ObjectKeyFromURL(raw, bucket string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "", false
	}
	marker := "/object/public/" + bucket + "/"
	i := strings.Index(u.Path, marker)
	if i < 0 {
		return "", false
	}
	key := u.Path[i+len(marker):]
	if key == "" {
		return "", false
	}
	return key, true
}
