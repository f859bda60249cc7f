package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "orders.csv"), []byte("id\n1\n"), 0o600))

	got, err := resolvePath(root, "orders.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "orders.csv"), got)

	got, err = resolvePath(root, "missing.csv")
	require.NoError(t, err, "missing files are reported by the loader")
	assert.Equal(t, filepath.Join(root, "missing.csv"), got)

	_, err = resolvePath(root, "../orders.csv")
	assert.ErrorIs(t, err, apperrors.ErrPathNotAllowed)

	got, err = resolvePath("", " ./a/../b.csv ")
	require.NoError(t, err)
	assert.Equal(t, "b.csv", got)
}

func TestResolvePath_Symlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "orders.csv"), []byte("id\n1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.csv"), []byte("id\n1\n"), 0o600))

	require.NoError(t, os.Symlink(filepath.Join(root, "orders.csv"), filepath.Join(root, "alias.csv")))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.csv"), filepath.Join(root, "leak.csv")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "shared")))

	got, err := resolvePath(root, "alias.csv")
	require.NoError(t, err, "links that stay inside the root are allowed")
	assert.Equal(t, filepath.Join(root, "alias.csv"), got)

	_, err = resolvePath(root, "leak.csv")
	assert.ErrorIs(t, err, apperrors.ErrPathNotAllowed)

	_, err = resolvePath(root, "shared/secret.csv")
	assert.ErrorIs(t, err, apperrors.ErrPathNotAllowed)

	_, err = resolvePath(root, "shared/new.csv")
	assert.ErrorIs(t, err, apperrors.ErrPathNotAllowed, "a linked directory is checked even when the file is absent")
}

func TestListSheetsTool_SymlinkOutsideRoot(t *testing.T) {
	f := newFixture(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.csv"), []byte("id\n1\n"), 0o600))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.csv"), filepath.Join(f.dir, "leak.csv")))

	resp := callTool(t, f.server, "list_sheets", map[string]any{"file_path": "leak.csv"})
	assert.Equal(t, "path_not_allowed", resp.errorCode(t))
}
