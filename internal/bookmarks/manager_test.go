package bookmarks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return m, dir
}

func TestManager_AddAndReload(t *testing.T) {
	t.Parallel()

	m, dir := newTestManager(t)

	v, err := m.Add("  Accuracy only ", "by name", "p1", "lazyscores://scores?pageSize=25&filter=name%3Bstring%3B%3D%3Baccuracy&pageIndex=0")
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "Accuracy only", v.Name)
	assert.Equal(t, "filter=name%3Bstring%3B%3D%3Baccuracy&pageIndex=0&pageSize=25", v.Address)

	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	reloaded, err := NewManager(dir)
	require.NoError(t, err)
	got, err := reloaded.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Address, got.Address)
	assert.Equal(t, "p1", got.Scope)
}

func TestManager_AddValidation(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)

	_, err := m.Add(" ", "", "p1", "")
	assert.Error(t, err)

	_, err = m.Add("view", "", "", "")
	assert.Error(t, err)

	_, err = m.Add("Daily", "", "p1", "")
	require.NoError(t, err)

	_, err = m.Add("daily", "", "p1", "")
	assert.Error(t, err, "names are unique per scope, case-insensitively")

	_, err = m.Add("daily", "", "p2", "")
	assert.NoError(t, err, "other scopes may reuse a name")
}

func TestManager_FindUpdateDelete(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	v, err := m.Add("Errors", "", "p1", "pageIndex=0")
	require.NoError(t, err)

	found, ok := m.FindByName("p1", "ERRORS")
	require.True(t, ok)
	assert.Equal(t, v.ID, found.ID)

	_, ok = m.FindByName("p2", "Errors")
	assert.False(t, ok)

	require.NoError(t, m.Update(v.ID, "updated", "pageIndex=3"))
	got, err := m.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "pageIndex=3", got.Address)
	assert.Equal(t, "updated", got.Description)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	require.NoError(t, m.Delete(v.ID))
	_, err = m.Get(v.ID)
	assert.Error(t, err)
	assert.Error(t, m.Delete(v.ID))
	assert.Error(t, m.Update(v.ID, "", ""))
}

func TestManager_UsageAndRecent(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t)
	a, err := m.Add("a", "", "p1", "")
	require.NoError(t, err)
	b, err := m.Add("b", "", "p1", "")
	require.NoError(t, err)
	_, err = m.Add("c", "", "p2", "")
	require.NoError(t, err)

	require.NoError(t, m.RecordUsage(a.ID))
	require.NoError(t, m.RecordUsage(b.ID))
	require.NoError(t, m.RecordUsage(a.ID))

	recent := m.GetRecent("p1", 0)
	require.Len(t, recent, 2)
	assert.Equal(t, "a", recent[0].Name)
	assert.Equal(t, 2, recent[0].UsageCount)

	assert.Len(t, m.GetRecent("p1", 1), 1)
	assert.Len(t, m.GetAll(""), 3)
	assert.Len(t, m.GetAll("p2"), 1)
	assert.Error(t, m.RecordUsage("missing"))
}

func TestNewManager_CorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not: [valid"), 0644))

	_, err := NewManager(dir)
	assert.Error(t, err)
}
