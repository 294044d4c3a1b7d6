package mount_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SukkoPera/gotekonf/internal/mount"
)

func TestSelectorPath_Found(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "selector.adf"), []byte{0}, 0644))

	p, err := mount.SelectorPath(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "selector.adf"), p)
}

func TestSelectorPath_Missing(t *testing.T) {
	dir := t.TempDir()
	_, err := mount.SelectorPath(dir)
	require.Error(t, err)
}

func TestFindByExtension_DepthFirstLexicographic(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.adf"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.adf"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "c.adf"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignore.txt"), nil, 0644))

	got, err := mount.FindByExtension(root, ".adf")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "a.adf"),
		filepath.Join(root, "b.adf"),
		filepath.Join(root, "sub", "c.adf"),
	}, got)
}

func TestFindByName_Recursive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "target.adf"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "target.adf"), nil, 0644))

	got, err := mount.FindByName(root, "target.adf")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join(root, "target.adf"),
		filepath.Join(root, "sub", "target.adf"),
	}, got)
}
