package decode

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func drainRows(t *testing.T, rowCh <-chan Row, errCh <-chan error) []Row {
	t.Helper()
	var rows []Row
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	return rows
}

func TestStreamCSV_Basic(t *testing.T) {
	path := writeTestCSV(t, "a_number,b_number,duration\n14155551234,14155559999,60\n14155552222,14155558888,30\n")

	rowCh, errCh := streamCSV(context.Background(), path)
	rows := drainRows(t, rowCh, errCh)

	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "14155551234", rows[0].Cells["a_number"])
	assert.Equal(t, "60", rows[0].Cells["duration"])
	assert.Equal(t, 1, rows[1].Index)
}

func TestStreamCSV_BlankFieldIsNil(t *testing.T) {
	path := writeTestCSV(t, "a_number,lrn\n14155551234,\n")

	rowCh, errCh := streamCSV(context.Background(), path)
	rows := drainRows(t, rowCh, errCh)

	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Cells["lrn"])
}

func TestStreamCSV_TrimsBOMFromHeader(t *testing.T) {
	path := writeTestCSV(t, "\xef\xbb\xbfa_number,b_number\n1,2\n")

	rowCh, errCh := streamCSV(context.Background(), path)
	rows := drainRows(t, rowCh, errCh)

	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].Cells["a_number"])
}

func TestStreamCSV_MissingFile(t *testing.T) {
	rowCh, errCh := streamCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	_, ok := <-rowCh
	assert.False(t, ok)
	err := <-errCh
	assert.Error(t, err)
}

func TestStreamCSV_EmptyFile(t *testing.T) {
	path := writeTestCSV(t, "")
	rowCh, errCh := streamCSV(context.Background(), path)
	rows := drainRows(t, rowCh, errCh)
	assert.Empty(t, rows)
}

func TestStreamCSV_ContextCancelled(t *testing.T) {
	path := writeTestCSV(t, "a\n1\n2\n3\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := streamCSV(ctx, path)
	for range rowCh {
	}
	err := <-errCh
	assert.Error(t, err)
}
