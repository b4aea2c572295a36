package document

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/backend"
	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakeObjects) Upload(_ context.Context, bucket, path, _ string, body io.Reader) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[bucket+"/"+path] = data
	return nil
}

func (f *fakeObjects) SignURL(_ context.Context, bucket, path string, ttl time.Duration) (string, error) {
	return "https://files.example/" + bucket + "/" + path + "?ttl=" + ttl.String(), nil
}

func TestUploadStoresObjectAndRow(t *testing.T) {
	rows := backend.NewMemoryRows()
	objects := &fakeObjects{}
	s := NewService(rows, objects, "documents", time.Minute, zap.NewNop())

	up, err := s.Upload(context.Background(), "u1", "my scan.pdf", "application/pdf", 5, bytes.NewBufferString("hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(up.Path, "u1/"+up.ID+"-"))
	assert.True(t, strings.HasSuffix(up.Path, "-my_scan.pdf"))
	assert.Equal(t, []byte("hello"), objects.objects["documents/"+up.Path])

	list, err := s.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, up.ID, list[0].ID)
}

func TestUploadRejectsEmptyName(t *testing.T) {
	rows := backend.NewMemoryRows()
	s := NewService(rows, &fakeObjects{}, "documents", 0, zap.NewNop())

	_, err := s.Upload(context.Background(), "u1", "  ", "", 0, strings.NewReader(""))
	assert.True(t, model.IsValidationError(err))
	assert.Equal(t, 0, rows.Inserts())
}

func TestUploadObjectFailureSkipsRow(t *testing.T) {
	rows := backend.NewMemoryRows()
	s := NewService(rows, &fakeObjects{err: errors.New("quota")}, "documents", 0, zap.NewNop())

	_, err := s.Upload(context.Background(), "u1", "a.txt", "text/plain", 1, strings.NewReader("x"))
	assert.Error(t, err)
	assert.Equal(t, 0, rows.Inserts())
}

func TestSignedURLChecksOwner(t *testing.T) {
	s := NewService(backend.NewMemoryRows(), &fakeObjects{}, "documents", time.Minute, zap.NewNop())
	up, err := s.Upload(context.Background(), "u1", "../../etc/a.txt", "text/plain", 1, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", up.FileName)

	link, err := s.SignedURL(context.Background(), "u1", up.ID)
	require.NoError(t, err)
	assert.Contains(t, link.URL, up.Path)
	assert.True(t, link.ExpiresAt.After(time.Now()))

	_, err = s.SignedURL(context.Background(), "u2", up.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.SignedURL(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
