// Package blob stores receipt images and resolves them to fetchable URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"moneymanager/internal/core"
	applog "moneymanager/internal/log"
	"moneymanager/internal/ports"
)

// Prefix namespaces every receipt key.
const Prefix = "expenses/"

var ErrEmptyReceipt = errors.New("receipt file is empty")

// Key returns the blob key for a receipt file name. Directories in name are
// dropped, so "C:\\scans\\a.png" and "/tmp/a.png" both map to "expenses/a.png".
func Key(filename string) string {
	base := strings.TrimSpace(filename)
	base = strings.ReplaceAll(base, "\\", "/")
	base = path.Base(base)
	if base == "." || base == "/" || base == "" {
		base = "receipt"
	}
	return Prefix + base
}

// ContentType returns f.ContentType or guesses it from the name and bytes.
func ContentType(f core.ReceiptFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); ct != "" {
		return ct
	}
	return http.DetectContentType(f.Data)
}

// Uploader stores a receipt and resolves its URL. Every error it returns
// wraps core.ErrUploadFailure.
type Uploader struct {
	store  ports.BlobStore
	logger *applog.Logger
}

func NewUploader(store ports.BlobStore, logger *applog.Logger) *Uploader {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Uploader{store: store, logger: logger.WithComponent(applog.ComponentBlob)}
}

// Upload stores f under Key(f.Name) and returns the resolved URL.
func (u *Uploader) Upload(ctx context.Context, f core.ReceiptFile) (string, error) {
	if len(f.Data) == 0 {
		return "", fmt.Errorf("%w: %w", core.ErrUploadFailure, ErrEmptyReceipt)
	}
	key := Key(f.Name)
	handle, err := u.store.Store(ctx, key, f.Data, ContentType(f))
	if err != nil {
		return "", fmt.Errorf("%w: store %s: %w", core.ErrUploadFailure, key, err)
	}
	url, err := u.store.Resolve(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %w", core.ErrUploadFailure, key, err)
	}
	u.logger.InfoContext(ctx, "Receipt uploaded",
		applog.FieldOperation, applog.OpUpload,
		applog.FieldBlobKey, key,
		"size", len(f.Data))
	return url, nil
}

// Remove deletes the blob behind a URL or key.
func (u *Uploader) Remove(ctx context.Context, urlOrKey string) error {
	if err := u.store.Delete(ctx, urlOrKey); err != nil {
		return err
	}
	u.logger.InfoContext(ctx, "Receipt deleted",
		applog.FieldOperation, applog.OpRemoveReceipt,
		applog.FieldBlobKey, urlOrKey)
	return nil
}
