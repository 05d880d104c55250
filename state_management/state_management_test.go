package state_management

import (
	"testing"

	"github.com/meysamhadeli/imgsync/state_management/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		content  *string
		expected models.Manifest
	}{
		{
			name:     "missing file",
			content:  nil,
			expected: models.Manifest{},
		},
		{
			name:     "blank file",
			content:  strPtr("  \n"),
			expected: models.Manifest{},
		},
		{
			name:     "malformed file",
			content:  strPtr("{not json"),
			expected: models.Manifest{},
		},
		{
			name:     "null",
			content:  strPtr("null"),
			expected: models.Manifest{},
		},
		{
			name:     "manifest written by the python tool",
			content:  strPtr(`{"cat.png": "5d41402abc4b2a76b9719d911017c592"}`),
			expected: models.Manifest{"cat.png": "5d41402abc4b2a76b9719d911017c592"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if test.content != nil {
				require.NoError(t, afero.WriteFile(fs, "/state.json", []byte(*test.content), 0644))
			}

			manifest, err := NewStateManager(fs, "/state.json").Load()
			require.NoError(t, err)
			assert.Equal(t, test.expected, manifest)
		})
	}
}

func TestSaveOverwritesWholesale(t *testing.T) {
	fs := afero.NewMemMapFs()
	sm := NewStateManager(fs, "/data/state.json")

	require.NoError(t, sm.Save(models.Manifest{"a.png": "1", "b.png": "2"}))
	require.NoError(t, sm.Save(models.Manifest{"b.png": "3"}))

	manifest, err := sm.Load()
	require.NoError(t, err)
	assert.Equal(t, models.Manifest{"b.png": "3"}, manifest)

	content, err := afero.ReadFile(fs, "/data/state.json")
	require.NoError(t, err)
	assert.Equal(t, `{"b.png":"3"}`, string(content))

	exists, err := afero.Exists(fs, "/data/state.json.tmp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSaveNil(t *testing.T) {
	fs := afero.NewMemMapFs()
	sm := NewStateManager(fs, "/state.json")

	require.NoError(t, sm.Save(nil))

	content, err := afero.ReadFile(fs, "/state.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(content))
}

func TestReset(t *testing.T) {
	fs := afero.NewMemMapFs()
	sm := NewStateManager(fs, "/state.json")

	// Nothing to delete yet.
	assert.NoError(t, sm.Reset())

	require.NoError(t, sm.Save(models.Manifest{"a.png": "1"}))
	require.NoError(t, sm.Reset())

	exists, err := afero.Exists(fs, "/state.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDiff(t *testing.T) {
	last := models.Manifest{"a.png": "1", "b.png": "2", "gone.gif": "9"}
	current := models.Manifest{"a.png": "1", "b.png": "22", "new.jpg": "5", "another.jpg": "6"}

	diff := Diff(last, current)

	assert.Equal(t, []string{"another.jpg", "new.jpg"}, diff.New)
	assert.Equal(t, []string{"b.png"}, diff.Changed)
	assert.Equal(t, []string{"a.png"}, diff.Unchanged)
	assert.Equal(t, []string{"gone.gif"}, diff.Removed)
}

func TestNeedsSync(t *testing.T) {
	manifest := models.Manifest{"a.png": "1"}

	assert.False(t, manifest.NeedsSync("a.png", "1"))
	assert.True(t, manifest.NeedsSync("a.png", "2"))
	assert.True(t, manifest.NeedsSync("b.png", "1"))
}

func strPtr(s string) *string {
	return &s
}
