package flatfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestReadRecordsMissingFile(t *testing.T) {
	records, err := ReadRecords(filepath.Join(t.TempDir(), "absent.csv"), 3, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadRecordsSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.csv")
	content := "a,true,2024-01-02\n" +
		"https://x/img,1,2.jpg,true,2024-01-02\n" +
		"\n" +
		"b,false,2024-02-03\r\n" +
		"only-two,fields\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	core, logs := observer.New(zap.WarnLevel)
	records, err := ReadRecords(path, 3, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"a", "true", "2024-01-02"},
		{"b", "false", "2024-02-03"},
	}, records)
	assert.Equal(t, 2, logs.FilterMessage("Skipping malformed line").Len())
}

func TestWriteRecordsReplacesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "store.csv")

	require.NoError(t, WriteRecords(path, [][]string{{"k1", "v1", "2024-01-01"}}))
	require.NoError(t, WriteRecords(path, [][]string{{"k2", "v2", "2024-02-02"}, {"k3", "v3", "2024-03-03"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "k2,v2,2024-02-02\nk3,v3,2024-03-03\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
