// Package reference loads the read-only data sets used during enrichment:
// postcode grid references, listing rosters, SIC descriptions and the
// registry snapshot.
package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound is returned when a named file or object does not exist.
var ErrObjectNotFound = errors.New("reference object not found")

// Source is a read-only store of named reference files.
type Source interface {
	// Open returns the contents of name. Callers close the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// List returns the names starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// DirSource serves files below a local directory. Names use forward slashes.
type DirSource struct {
	root string
}

// NewDirSource returns a Source rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

func (d *DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	file, err := os.Open(d.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return file, nil
}

func (d *DirSource) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		if name := filepath.ToSlash(rel); strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", d.root, err)
	}

	sort.Strings(names)
	return names, nil
}

func (d *DirSource) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.root, filepath.FromSlash(name))
}

// S3Options holds the connection settings of an S3-compatible store.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// S3Source serves objects from one bucket of an S3-compatible store.
type S3Source struct {
	client *minio.Client
	bucket string
}

// NewS3Source connects to the store described by opts.
func NewS3Source(opts S3Options) (*S3Source, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, errors.New("S3 endpoint and bucket are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &S3Source{client: client, bucket: opts.Bucket}, nil
}

func (s *S3Source) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", name, err)
	}

	// GetObject is lazy; Stat surfaces a missing key before the first read.
	if _, err = object.Stat(); err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		return nil, fmt.Errorf("failed to stat object %s: %w", name, err)
	}

	return object, nil
}

func (s *S3Source) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		names = append(names, object.Key)
	}

	sort.Strings(names)
	return names, nil
}
