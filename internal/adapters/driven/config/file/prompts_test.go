package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func TestNewPromptStore_DefaultDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	store, err := NewPromptStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".docqa", "prompts"), store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptGroundedAnswer)
	require.NoError(t, err)

	for _, f := range []string{"grounded_answer.txt", "no_sources.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_DefaultTemplates(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	grounded, err := store.Load(driven.PromptGroundedAnswer)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(grounded, "%s"))
	assert.Contains(t, grounded, "Use ONLY the provided context")

	none, err := store.Load(driven.PromptNoSources)
	require.NoError(t, err)
	assert.NotContains(t, none, "%")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "no_sources.txt"), []byte("\n  Nothing found.  \n"), 0o600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptNoSources)
	require.NoError(t, err)
	assert.Equal(t, "Nothing found.", prompt)

	// Existing files are left alone by initialisation.
	data, err := os.ReadFile(filepath.Join(dir, "no_sources.txt"))
	require.NoError(t, err)
	assert.Equal(t, "\n  Nothing found.  \n", string(data))
}

func TestPromptStore_Load_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, _ = store.Load(driven.PromptNoSources)
	require.NoError(t, os.Remove(filepath.Join(dir, "grounded_answer.txt")))

	prompt, err := store.Load(driven.PromptGroundedAnswer)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptGroundedAnswer], prompt)
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload_ClearsCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptNoSources)
	require.NoError(t, err)

	path := filepath.Join(dir, "no_sources.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0o600))

	cached, err := store.Load(driven.PromptNoSources)
	require.NoError(t, err)
	assert.NotEqual(t, "edited", cached)

	store.Reload()
	prompt, err := store.Load(driven.PromptNoSources)
	require.NoError(t, err)
	assert.Equal(t, "edited", prompt)
}

func TestPromptStore_Load_ConcurrentAccess(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	const goroutines = 50
	results := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := store.Load(driven.PromptGroundedAnswer)
			assert.NoError(t, err)
			results[i] = p
		}()
	}
	wg.Wait()

	for _, p := range results {
		assert.Equal(t, results[0], p)
	}
}
