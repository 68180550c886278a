// Package gcsstore wraps the Google Cloud Storage operations the service
// needs: fetching the model artifact and writing feature exports. It assumes
// Application Default Credentials are configured.
package gcsstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// Fetch downloads object bytes from the given gs:// URI.
	Fetch(ctx context.Context, gcsURI string) ([]byte, error)

	// Write uploads bytes to the given gs:// URI, overwriting any existing object.
	Write(ctx context.Context, gcsURI string, contentType string, data []byte) error
}

// Client is the concrete StorageService backed by cloud.google.com/go/storage.
type Client struct{}

// NewClient creates a new storage client wrapper.
func NewClient() *Client {
	return &Client{}
}

// Fetch downloads the object bytes from the given GCS URI.
func (c *Client) Fetch(ctx context.Context, gcsURI string) ([]byte, error) {
	bucketName, objectPath, err := SplitURI(gcsURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}

	return data, nil
}

// Write uploads data to the given GCS URI.
func (c *Client) Write(ctx context.Context, gcsURI string, contentType string, data []byte) error {
	bucketName, objectPath, err := SplitURI(gcsURI)
	if err != nil {
		return err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("Write: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("Write: writing object %s/%s: %w", bucketName, objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Write: finalize upload: %w", err)
	}

	return nil
}

// SplitURI splits "gs://bucket/path/to/object" into bucket and object path.
func SplitURI(gcsURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(gcsURI, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", gcsURI)
	}
	trimmed := strings.TrimPrefix(gcsURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", gcsURI)
	}
	return parts[0], parts[1], nil
}
