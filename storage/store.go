package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"meeting-analysis-api/utils"
)

// Object describes one staged upload.
type Object struct {
	ID          string
	Filename    string
	Size        int64
	ContentType string
}

// Key is the staged name, <id>_<filename>.
func (o Object) Key() string {
	return o.ID + "_" + o.Filename
}

// Store stages uploads. Put returns where the object ended up.
type Store interface {
	Put(ctx context.Context, obj Object, r io.Reader) (string, error)
	Name() string
}

// LocalStore writes uploads into a directory on local disk.
type LocalStore struct {
	Dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{Dir: dir}
}

func (s *LocalStore) Name() string { return "local" }

func (s *LocalStore) Put(ctx context.Context, obj Object, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}
	path := filepath.Join(s.Dir, obj.Key())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return path, nil
}

// S3Store puts uploads into a bucket under Prefix. It needs utils.InitS3 to
// have run.
type S3Store struct {
	Bucket string
	Prefix string
}

func NewS3Store(bucket string) *S3Store {
	return &S3Store{Bucket: bucket, Prefix: "uploads/"}
}

func (s *S3Store) Name() string { return "s3" }

func (s *S3Store) Put(ctx context.Context, obj Object, r io.Reader) (string, error) {
	key := s.Prefix + obj.Key()
	if err := utils.UploadFile(ctx, r, s.Bucket, key, obj.Size, obj.ContentType); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}
