package helpers

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. credentials may be a path
// to a service account file or the JSON document itself; empty means ADC.
func NewGCSClient(ctx context.Context, credentials string) (*storage.Client, error) {
	switch {
	case credentials == "":
		return storage.NewClient(ctx)
	case len(credentials) > 0 && credentials[0] == '{':
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentials)))
	default:
		return storage.NewClient(ctx, option.WithCredentialsFile(credentials))
	}
}

// GCSStore uploads objects into a single bucket.
type GCSStore struct {
	Client *storage.Client
	Bucket string
}

func NewGCSStore(client *storage.Client, bucket string) *GCSStore {
	return &GCSStore{Client: client, Bucket: bucket}
}

// Upload streams r into objectPath and returns its public URL.
func (s *GCSStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	wc := s.Client.Bucket(s.Bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(s.Bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
