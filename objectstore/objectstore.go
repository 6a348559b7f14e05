// Package objectstore keeps uploaded files under stable keys and hands out
// public URLs for them.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	"gocloud.dev/gcerrors"
)

// ErrInvalidKey is returned for keys that escape the bucket root.
var ErrInvalidKey = errors.New("objectstore: invalid key")

// Object describes one stored file.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Bucket stores objects under keys like "blog-images/1700000000000-a.png".
type Bucket interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// SanitizeName replaces every character outside [a-zA-Z0-9.-] with '_'.
func SanitizeName(name string) string {
	return unsafeName.ReplaceAllString(name, "_")
}

// Key builds "{prefix}/{unixMillis}-{sanitized name}".
func Key(prefix string, now time.Time, name string) string {
	file := strconv.FormatInt(now.UnixMilli(), 10) + "-" + SanitizeName(name)
	if prefix == "" {
		return file
	}
	return strings.TrimSuffix(prefix, "/") + "/" + file
}

// Store is a Bucket over a gocloud.dev blob bucket whose objects are
// publicly served under baseURL.
type Store struct {
	bucket  *blob.Bucket
	baseURL string
}

// OpenDir opens a filesystem bucket rooted at dir, creating it if needed.
func OpenDir(dir, baseURL string) (*Store, error) {
	b, err := fileblob.OpenBucket(dir, &fileblob.Options{
		CreateDir: true,
		NoTempDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("opening bucket dir: %w", err)
	}
	return NewStore(b, baseURL), nil
}

// Open opens a bucket by URL, e.g. "gs://my-bucket" or "file:///srv/uploads".
func Open(ctx context.Context, bucketURL, baseURL string) (*Store, error) {
	b, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %q: %w", bucketURL, err)
	}
	return NewStore(b, baseURL), nil
}

// NewStore wraps an already opened bucket.
func NewStore(b *blob.Bucket, baseURL string) *Store {
	return &Store{bucket: b, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// URL returns the public URL for key.
func (s *Store) URL(key string) string {
	return s.baseURL + "/" + key
}

func checkKey(key string) error {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}

// Put writes r to key. The object only becomes visible once fully written.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error) {
	if err := checkKey(key); err != nil {
		return Object{}, err
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(key))
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := s.bucket.NewWriter(wctx, key, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return Object{}, fmt.Errorf("opening object writer: %w", err)
	}
	n, err := io.Copy(w, r)
	if err != nil {
		// Cancelling before Close discards the partial write.
		cancel()
		w.Close() //nolint:errcheck
		return Object{}, fmt.Errorf("writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("closing object: %w", err)
	}

	modTime := time.Now()
	if attrs, err := s.bucket.Attributes(ctx, key); err == nil {
		modTime = attrs.ModTime
	}
	return Object{
		Key:         key,
		URL:         s.URL(key),
		ContentType: contentType,
		Size:        n,
		ModTime:     modTime,
	}, nil
}

// List returns objects whose key starts with prefix, newest first.
func (s *Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objs []Object
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		if obj.IsDir {
			continue
		}
		objs = append(objs, Object{
			Key:         obj.Key,
			URL:         s.URL(obj.Key),
			ContentType: mime.TypeByExtension(path.Ext(obj.Key)),
			Size:        obj.Size,
			ModTime:     obj.ModTime,
		})
	}
	sort.Slice(objs, func(i, j int) bool {
		if objs[i].ModTime.Equal(objs[j].ModTime) {
			return objs[i].Key > objs[j].Key
		}
		return objs[i].ModTime.After(objs[j].ModTime)
	})
	return objs, nil
}

// Delete removes key. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Close releases the underlying bucket.
func (s *Store) Close() error {
	return s.bucket.Close()
}
