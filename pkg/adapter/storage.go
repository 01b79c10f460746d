package adapter

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// ErrObjectNotFound is returned by Storage.Get when the key has never been written
var ErrObjectNotFound = goerr.New("object not found")

// Storage is the interface for corpus and summary artifact storage
type Storage interface {
	// Put returns a writer that replaces the artifact when closed
	Put(ctx context.Context, key string) (io.WriteCloser, error)
	// Get loads an artifact from storage
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	prefix     string
	client     *storage.Client
}

// StorageOption is a functional option for the Cloud Storage adapter
type StorageOption func(*storageClient)

// WithObjectPrefix stores artifacts under the given object prefix
func WithObjectPrefix(prefix string) StorageOption {
	return func(s *storageClient) {
		s.prefix = prefix
	}
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string, clientOpts []option.ClientOption, opts ...StorageOption) (Storage, error) {
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	s := &storageClient{
		bucketName: bucketName,
		client:     client,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *storageClient) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	obj := s.client.Bucket(s.bucketName).Object(s.prefix + key)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "text/plain; charset=utf-8"
	return writer, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj := s.client.Bucket(s.bucketName).Object(s.prefix + key)
	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrObjectNotFound, "artifact does not exist", goerr.V("key", key), goerr.V("bucket", s.bucketName))
		}
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key), goerr.V("bucket", s.bucketName))
	}

	return reader, nil
}
