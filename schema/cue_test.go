package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDir(t *testing.T) {
	registry, errs := LoadDir("testdata/schemas")
	require.Empty(t, errs)

	assert.Equal(t, []string{"order", "user"}, registry.Names())

	user, ok := registry.Get("user")
	require.True(t, ok)
	assert.True(t, user.Schemafull)
	require.Len(t, user.Fields, 4)

	byName := make(map[string]Field)
	for _, f := range user.Fields {
		byName[f.Name] = f
	}
	assert.True(t, byName["name"].Required)
	assert.True(t, byName["email"].Indexed)
	assert.Equal(t, true, byName["active"].Default)

	order, ok := registry.Get("order")
	require.True(t, ok)
	assert.True(t, order.Schemafull)

	byName = make(map[string]Field)
	for _, f := range order.Fields {
		byName[f.Name] = f
	}
	assert.Equal(t, "record<user>", byName["customer"].Type)
	assert.Equal(t, "pending", byName["status"].Default)
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	_, errs := LoadDir("testdata/does-not-exist")
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadDir_NoFiles(t *testing.T) {
	dir := t.TempDir()
	_, errs := LoadDir(dir)
	require.Len(t, errs, 1)

	var loadErr *LoadError
	require.ErrorAs(t, errs[0], &loadErr)
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

func TestFindCUEFiles(t *testing.T) {
	files, err := FindCUEFiles("testdata/schemas")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "shop.cue")
}
