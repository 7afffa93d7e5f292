package objectstore

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	gocache "github.com/patrickmn/go-cache"

	"audio-archive/apperr"
)

type minioStore struct {
	client *minio.Client
	bucket string

	// presignCache avoids re-signing a URL for every playback request of
	// the same object. Entries expire well before the URL itself does.
	presignCache *gocache.Cache
}

// NewMinioStore wraps a configured MinIO client as a Store over one bucket.
func NewMinioStore(client *minio.Client, bucket string) Store {
	return &minioStore{
		client:       client,
		bucket:       bucket,
		presignCache: gocache.New(DefaultPresignTTL/2, 10*time.Minute),
	}
}

func (s *minioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return apperr.Storage("put "+key, err)
	}
	return nil
}

func (s *minioStore) PutFile(ctx context.Context, key, path, contentType string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return apperr.Storage("put "+key, err)
	}
	return nil
}

func (s *minioStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.bucket, Object: srcKey},
	)
	if err != nil {
		return apperr.Storage("copy "+srcKey+" -> "+dstKey, err)
	}
	return nil
}

func (s *minioStore) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return apperr.Storage("delete "+key, err)
	}
	return nil
}

func (s *minioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, apperr.Storage("stat "+key, err)
	}
	return true, nil
}

func (s *minioStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var listed []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, apperr.Storage("list "+prefix, obj.Err)
		}
		listed = append(listed, obj.Key)
	}
	return listed, nil
}

type presignEntry struct {
	url       string
	expiresAt time.Time
}

// stillCovers reports whether the signed URL's remaining validity covers at
// least half the requested window. Anything shorter gets re-signed.
func (e presignEntry) stillCovers(ttl time.Duration, now time.Time) bool {
	return e.expiresAt.Sub(now) >= ttl/2
}

func (s *minioStore) PresignedGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	if cached, ok := s.presignCache.Get(key); ok {
		entry := cached.(presignEntry)
		if entry.stillCovers(ttl, time.Now()) {
			return entry.url, nil
		}
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", apperr.Storage("presign "+key, err)
	}

	s.presignCache.Set(key, presignEntry{url: u.String(), expiresAt: time.Now().Add(ttl)}, ttl/2)
	return u.String(), nil
}
