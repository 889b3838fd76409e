package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/catalogio"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/utils"
)

func TestLoadCatalog_Workbook(t *testing.T) {
	want := utils.GenerateRandomCatalog(10, 2, 4)
	buf, err := catalogio.WriteCatalog(want)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "2025秋季.xlsx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "2025秋季", got.Name)
	assert.Len(t, got.CourseSections, 10)
	assert.Len(t, got.Teachers, 4)
}

func TestLoadCatalog_CSVDir(t *testing.T) {
	want := utils.GenerateRandomCatalog(6, 1, 3)
	dir := filepath.Join(t.TempDir(), "fall")
	require.NoError(t, catalogio.WriteCSVDir(dir, want))

	got, err := LoadCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, "fall", got.Name)
	assert.Equal(t, want.TimeSlots, got.TimeSlots)
}

func TestLoadCatalog_UnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := LoadCatalog(path)
	assert.Error(t, err)

	_, err = LoadCatalog(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
