// Package miniostore implements sketchstore.Store for MinIO and
// S3-compatible object storage.
package miniostore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"

	"github.com/scanon/AssemblyHomologyService/pkg/sketchstore"
)

// Store resolves s3:// sketch locations by downloading the object into a
// local cache directory. Objects are immutable per load, so a cached copy is
// reused without revalidation.
type Store struct {
	client   *minio.Client
	cacheDir string
}

// NewStore creates a MinIO-backed sketch store caching downloads under
// cacheDir.
func NewStore(client *minio.Client, cacheDir string) (*Store, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sketch cache dir: %w", err)
	}
	return &Store{client: client, cacheDir: cacheDir}, nil
}

// Resolve downloads the object at an "s3://bucket/key" location into the
// cache directory, or returns the cached copy if one exists.
func (s *Store) Resolve(ctx context.Context, location string) (string, error) {
	bucket, key, err := splitLocation(location)
	if err != nil {
		return "", err
	}

	local := s.cachePath(location, key)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	// Download to a temp name first so a partial fetch never looks like a
	// cached sketch.
	tmp := local + ".partial"
	if err := s.client.FGetObject(ctx, bucket, key, tmp, minio.GetObjectOptions{}); err != nil {
		os.Remove(tmp)
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" || errResp.Code == "NoSuchBucket" {
			return "", fmt.Errorf("sketch database %s: %w", location, sketchstore.ErrNotFound)
		}
		return "", fmt.Errorf("fetching sketch database %s: %w", location, err)
	}
	if err := os.Rename(tmp, local); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("caching sketch database %s: %w", location, err)
	}

	return local, nil
}

// cachePath builds a collision-free cache file name that keeps the original
// base name so tool diagnostics stay readable.
func (s *Store) cachePath(location, key string) string {
	sum := sha256.Sum256([]byte(location))
	return filepath.Join(s.cacheDir, hex.EncodeToString(sum[:8])+"-"+filepath.Base(key))
}

func splitLocation(location string) (bucket, key string, err error) {
	trimmed, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return "", "", fmt.Errorf("sketch location %q is not an s3:// URL", location)
	}
	bucket, key, ok = strings.Cut(trimmed, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("sketch location %q must be s3://bucket/key", location)
	}
	return bucket, key, nil
}
