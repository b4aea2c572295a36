package txlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AlexZinkM/consent-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndAll(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "sub", "transactions.jsonl"))

	recs, err := l.All()
	require.NoError(t, err)
	assert.Empty(t, recs)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, l.Append(model.TransactionRecord{ID: "A", MicroAlgos: 1, Timestamp: now, Type: model.TransactionTypeSend}))
	require.NoError(t, l.Append(model.TransactionRecord{ID: "B", MicroAlgos: 2, Timestamp: now, Type: model.TransactionTypeFund}))

	recs, err = l.All()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A", recs[0].ID)
	assert.Equal(t, "B", recs[1].ID)
	assert.True(t, now.Equal(recs[1].Timestamp))
}

func TestAllSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json\n{\"id\":\"ok\"}\n"), 0600))

	recs, err := New(path).All()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ok", recs[0].ID)
}
