package blob_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneymanager/internal/blob"
	"moneymanager/internal/blob/memory"
	"moneymanager/internal/core"
)

func TestKey(t *testing.T) {
	cases := map[string]string{
		"receipt.png":            "expenses/receipt.png",
		"/tmp/scans/receipt.png": "expenses/receipt.png",
		`C:\scans\lunch.jpg`:     "expenses/lunch.jpg",
		"":                       "expenses/receipt",
		"  bill.pdf ":            "expenses/bill.pdf",
	}
	for in, want := range cases {
		assert.Equal(t, want, blob.Key(in), in)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/x-custom", blob.ContentType(core.ReceiptFile{ContentType: "image/x-custom"}))
	assert.Equal(t, "image/png", blob.ContentType(core.ReceiptFile{Name: "a.PNG"}))
	assert.Equal(t, "text/plain; charset=utf-8", blob.ContentType(core.ReceiptFile{Name: "noext", Data: []byte("hello")}))
}

func TestUploader_Upload(t *testing.T) {
	store := memory.New()
	up := blob.NewUploader(store, nil)

	url, err := up.Upload(context.Background(), core.ReceiptFile{Name: "dir/r.png", Data: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, "mem://expenses/r.png", url)

	data, ct, ok := store.Get("expenses/r.png")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, "image/png", ct)

	require.NoError(t, up.Remove(context.Background(), url))
	assert.Equal(t, 0, store.Len())
}

type failingStore struct{ storeErr, resolveErr error }

func (f failingStore) Store(context.Context, string, []byte, string) (string, error) {
	return "h", f.storeErr
}
func (f failingStore) Resolve(context.Context, string) (string, error) { return "", f.resolveErr }
func (f failingStore) Delete(context.Context, string) error            { return nil }

func TestUploader_FailuresAreUploadFailures(t *testing.T) {
	ctx := context.Background()
	file := core.ReceiptFile{Name: "r.png", Data: []byte{1}}
	boom := errors.New("boom")

	_, err := blob.NewUploader(failingStore{storeErr: boom}, nil).Upload(ctx, file)
	assert.ErrorIs(t, err, core.ErrUploadFailure)
	assert.ErrorIs(t, err, boom)

	_, err = blob.NewUploader(failingStore{resolveErr: boom}, nil).Upload(ctx, file)
	assert.ErrorIs(t, err, core.ErrUploadFailure)

	_, err = blob.NewUploader(memory.New(), nil).Upload(ctx, core.ReceiptFile{Name: "empty.png"})
	assert.ErrorIs(t, err, core.ErrUploadFailure)
	assert.ErrorIs(t, err, blob.ErrEmptyReceipt)
}
