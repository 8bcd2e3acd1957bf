package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ciamek94/scraper/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRecordsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, storage.FileAcceptedJSON)
	accepted, _ := sampleRecords()

	require.NoError(t, storage.WriteRecordsJSON(path, accepted))

	got, err := storage.ReadRecordsJSON(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, accepted[0], got[0])
}

func TestReadRecordsJSON_MissingFileIsEmpty(t *testing.T) {
	got, err := storage.ReadRecordsJSON(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

// Fields an older version may have written but this one does not know are
// discarded on load instead of being carried forward.
func TestReadRecordsJSON_UnknownFieldsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accepted.json")
	doc := `[{"Title":"Falownik","Price":"500 zł","Link":"https://www.olx.pl/d/oferta/ad-1.html",
		"NormLink":"https://www.olx.pl/d/oferta/ad-1.html","LegacyColumn":"dropped"}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	got, err := storage.ReadRecordsJSON(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Falownik", got[0].Title)
}

func TestWriteRecordsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.FileAcceptedXLSX)
	accepted, _ := sampleRecords()

	require.NoError(t, storage.WriteRecordsXLSX(path, accepted))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, "Falownik 3kW", rows[1][0])
	assert.Equal(t, "500 zł", rows[1][1])
}

func TestRunStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.FileRunState)
	state := sampleState()

	require.NoError(t, storage.WriteRunState(path, state))

	got, err := storage.ReadRunState(path)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, state, *got)
}

func TestReadRunState_MissingFileIsFirstRun(t *testing.T) {
	got, err := storage.ReadRunState(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, got)
}
