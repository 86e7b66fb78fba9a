// Package firebase stores receipts in a Firebase Storage bucket through the
// Cloud Storage JSON API, producing the same token download URLs the
// Firebase SDKs hand out.
package firebase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gstorage "google.golang.org/api/storage/v1"

	applog "moneymanager/internal/log"
)

const (
	tokenMetadataKey = "firebaseStorageDownloadTokens"
	downloadHost     = "firebasestorage.googleapis.com"
	gcsHost          = "storage.googleapis.com"
)

// objectAPI is the slice of the Cloud Storage service the adapter uses.
type objectAPI interface {
	insert(ctx context.Context, bucket string, obj *gstorage.Object, r io.Reader, contentType string) (*gstorage.Object, error)
	get(ctx context.Context, bucket, name string) (*gstorage.Object, error)
	delete(ctx context.Context, bucket, name string) error
}

type gcsObjects struct {
	svc *gstorage.Service
}

func (g gcsObjects) insert(ctx context.Context, bucket string, obj *gstorage.Object, r io.Reader, contentType string) (*gstorage.Object, error) {
	return g.svc.Objects.Insert(bucket, obj).Media(r, googleapi.ContentType(contentType)).Context(ctx).Do()
}

func (g gcsObjects) get(ctx context.Context, bucket, name string) (*gstorage.Object, error) {
	return g.svc.Objects.Get(bucket, name).Context(ctx).Do()
}

func (g gcsObjects) delete(ctx context.Context, bucket, name string) error {
	return g.svc.Objects.Delete(bucket, name).Context(ctx).Do()
}

// Store is a ports.BlobStore backed by a Firebase Storage bucket.
type Store struct {
	bucket string
	api    objectAPI
	logger *applog.Logger
}

// Config selects the bucket and service-account credentials.
type Config struct {
	Bucket          string
	CredentialsFile string
	CredentialsJSON string
}

// New creates the storage service from service-account credentials.
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...option.ClientOption) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("firebase storage bucket is required")
	}
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentBlob)

	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		credentialsJSON = []byte(cfg.CredentialsJSON)
	case cfg.CredentialsFile != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	}
	if credentialsJSON != nil {
		opts = append([]option.ClientOption{
			option.WithCredentialsJSON(credentialsJSON),
			option.WithScopes(gstorage.DevstorageReadWriteScope),
		}, opts...)
	}

	svc, err := gstorage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	logger.Info("Firebase storage client created", "bucket", cfg.Bucket)
	return &Store{bucket: cfg.Bucket, api: gcsObjects{svc: svc}, logger: logger}, nil
}

// Store implements ports.BlobStore. The handle is the object name.
func (s *Store) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := &gstorage.Object{
		Name:        key,
		ContentType: contentType,
		Metadata:    map[string]string{tokenMetadataKey: uuid.NewString()},
	}
	out, err := s.api.insert(ctx, s.bucket, obj, bytes.NewReader(data), contentType)
	if err != nil {
		return "", fmt.Errorf("insert object %s: %w", key, err)
	}
	s.logger.DebugContext(ctx, "Object stored", applog.FieldBlobKey, out.Name, "size", out.Size)
	return out.Name, nil
}

// Resolve implements ports.BlobStore.
func (s *Store) Resolve(ctx context.Context, handle string) (string, error) {
	obj, err := s.api.get(ctx, s.bucket, handle)
	if err != nil {
		return "", fmt.Errorf("get object %s: %w", handle, err)
	}
	if token := firstToken(obj.Metadata[tokenMetadataKey]); token != "" {
		return DownloadURL(s.bucket, obj.Name, token), nil
	}
	if obj.MediaLink != "" {
		return obj.MediaLink, nil
	}
	return "", fmt.Errorf("object %s has no download token or media link", handle)
}

// Delete implements ports.BlobStore.
func (s *Store) Delete(ctx context.Context, urlOrKey string) error {
	name, err := ObjectName(s.bucket, urlOrKey)
	if err != nil {
		return err
	}
	if err := s.api.delete(ctx, s.bucket, name); err != nil {
		return fmt.Errorf("delete object %s: %w", name, err)
	}
	return nil
}

// DownloadURL builds a Firebase token download URL.
func DownloadURL(bucket, name, token string) string {
	return fmt.Sprintf("https://%s/v0/b/%s/o/%s?alt=media&token=%s",
		downloadHost, bucket, url.PathEscape(name), url.QueryEscape(token))
}

// ObjectName extracts the object name from a Firebase download URL, a
// gs:// URL, a storage.googleapis.com URL or a bare key.
func ObjectName(bucket, urlOrKey string) (string, error) {
	s := strings.TrimSpace(urlOrKey)
	if s == "" {
		return "", errors.New("empty object reference")
	}

	if rest, ok := strings.CutPrefix(s, "gs://"); ok {
		b, name, _ := strings.Cut(rest, "/")
		if b != bucket || name == "" {
			return "", fmt.Errorf("object %q is not in bucket %s", s, bucket)
		}
		return name, nil
	}

	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return strings.TrimPrefix(s, "/"), nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse object url: %w", err)
	}
	switch u.Host {
	case downloadHost:
		// /v0/b/{bucket}/o/{escaped name}
		prefix := "/v0/b/" + bucket + "/o/"
		escaped := u.EscapedPath()
		if !strings.HasPrefix(escaped, prefix) {
			return "", fmt.Errorf("object %q is not in bucket %s", s, bucket)
		}
		name, err := url.PathUnescape(strings.TrimPrefix(escaped, prefix))
		if err != nil {
			return "", fmt.Errorf("unescape object name: %w", err)
		}
		return name, nil
	case gcsHost:
		b, name, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if b != bucket || name == "" {
			return "", fmt.Errorf("object %q is not in bucket %s", s, bucket)
		}
		return name, nil
	}
	return "", fmt.Errorf("unrecognised object url %q", s)
}

func firstToken(tokens string) string {
	first, _, _ := strings.Cut(tokens, ",")
	return strings.TrimSpace(first)
}
