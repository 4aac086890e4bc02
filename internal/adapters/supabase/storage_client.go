package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"listing-service/internal/core/domain"
)

// StorageClient реализует ObjectStoragePort поверх Supabase Storage
type StorageClient struct {
	*client
	bucket string
}

func NewStorageClient(cfg Config, bucket string) (*StorageClient, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &StorageClient{client: c, bucket: bucket}, nil
}

type uploadResponseDTO struct {
	Key string `json:"Key"` // "<bucket>/<name>"
}

// Upload кладёт объект от имени пользователя. Существующий объект не перезаписывается.
func (c *StorageClient) Upload(ctx context.Context, accessToken, objectName string, object domain.UploadObject) (string, error) {
	path := "/storage/v1/object/" + url.PathEscape(c.bucket) + "/" + escapePath(objectName)
	req, err := c.newRequest(ctx, http.MethodPost, path, accessToken, bytes.NewReader(object.Data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", object.ContentType)
	req.Header.Set("x-upsert", "false")
	req.ContentLength = int64(len(object.Data))

	var resp uploadResponseDTO
	if err := c.do(req, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) {
			return "", fmt.Errorf("%w: image upload failed: %w", domain.ErrUpstream, err)
		}
		return "", err
	}

	if key := strings.TrimPrefix(resp.Key, c.bucket+"/"); key != "" && key != resp.Key {
		return key, nil
	}
	return objectName, nil
}

// PublicURL строит публичную ссылку на объект бакета
func (c *StorageClient) PublicURL(path string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(c.bucket) + "/" + escapePath(path)
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
