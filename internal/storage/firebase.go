package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
)

const gcsPublicHost = "https://storage.googleapis.com/"

// Bucket stores objects in a Firebase Storage bucket.
type Bucket struct {
	name   string
	handle *gcs.BucketHandle
}

// NewBucket opens the named bucket, or the app's default bucket when name is empty.
func NewBucket(ctx context.Context, app *firebase.App, name string) (*Bucket, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase storage: %w", err)
	}
	var handle *gcs.BucketHandle
	if name == "" {
		handle, err = client.DefaultBucket()
	} else {
		handle, err = client.Bucket(name)
	}
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	return &Bucket{name: handle.BucketName(), handle: handle}, nil
}

func (b *Bucket) Upload(ctx context.Context, path string, r io.Reader, contentType string) (string, error) {
	path = strings.TrimLeft(path, "/")
	w := b.handle.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("upload object: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object: %w", err)
	}
	return b.PublicURL(path), nil
}

// Delete removes the object behind publicURL. Foreign URLs are ignored.
func (b *Bucket) Delete(ctx context.Context, publicURL string) error {
	path, ok := b.objectPath(publicURL)
	if !ok {
		return nil
	}
	err := b.handle.Object(path).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (b *Bucket) PublicURL(path string) string {
	return gcsPublicHost + b.name + "/" + strings.TrimLeft(path, "/")
}

func (b *Bucket) objectPath(publicURL string) (string, bool) {
	prefix := gcsPublicHost + b.name + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	path := strings.TrimPrefix(publicURL, prefix)
	return path, path != ""
}
