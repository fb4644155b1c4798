// Package blob holds the BlobStore contract the chore-creation and chat-send
// flows upload images through, plus its Google Cloud Storage implementation.
package blob

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store uploads a blob and returns its public URL.
type Store interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// gcsStore implements Store on a Google Cloud Storage bucket.
type gcsStore struct {
	bucket     *storage.BucketHandle
	bucketName string
	logger     *zap.Logger
}

// NewGCSStore creates a Store writing into the named bucket.
func NewGCSStore(client *storage.Client, bucketName string, logger *zap.Logger) Store {
	return &gcsStore{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		logger:     logger,
	}
}

func (s *gcsStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	name, err := objectName()
	if err != nil {
		return "", err
	}

	w := s.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	s.logger.Debug("uploaded blob", zap.String("object", name), zap.Int("bytes", len(data)))
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, name), nil
}

// UploadAll uploads all images concurrently and returns their URLs in input
// order. Any single failure aborts the whole batch, so the owning document is
// never written with a partial image list.
func UploadAll(ctx context.Context, store Store, images [][]byte) ([]string, error) {
	if len(images) == 0 {
		return nil, nil
	}

	urls := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			url, err := store.Upload(gctx, img, "image/jpeg")
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("image upload: %w", err)
	}
	return urls, nil
}

func objectName() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate object name: %w", err)
	}
	return "images/" + hex.EncodeToString(b), nil
}
