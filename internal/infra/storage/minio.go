package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options for New.
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type Store struct {
	client     *minio.Client
	bucketName string
}

// New buat koneksi MinIO
func New(ctx context.Context, opts Options) (*Store, error) {
	cli, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: opts.Bucket}, nil
}

// Ping checks that the bucket is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

// Put stores an uploaded document and returns its URL. size may be -1 when unknown.
func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return s.objectURL(key), nil
}

// URL publik (jika bucket public), kalau private harus generate presigned URL
func (s *Store) objectURL(key string) string {
	u := *s.client.EndpointURL()
	u.Path = path.Join("/", s.bucketName, key)
	return u.String()
}

// SessionStore returns a key-value store for one session, kept as objects
// under sessions/{id}/.
func (s *Store) SessionStore(sessionID string) *SessionStore {
	return &SessionStore{store: s, prefix: path.Join("sessions", sessionID)}
}

// SessionStore implements session.Store on top of a bucket.
type SessionStore struct {
	store  *Store
	prefix string
}

func (s *SessionStore) objectKey(key string) string {
	return s.prefix + "/" + url.PathEscape(key)
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	obj, err := s.store.client.GetObject(ctx, s.store.bucketName, s.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return "", false, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (s *SessionStore) Set(ctx context.Context, key, value string) error {
	data := []byte(value)
	_, err := s.store.client.PutObject(ctx, s.store.bucketName, s.objectKey(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

func (s *SessionStore) Remove(ctx context.Context, key string) error {
	return s.store.client.RemoveObject(ctx, s.store.bucketName, s.objectKey(key), minio.RemoveObjectOptions{})
}
