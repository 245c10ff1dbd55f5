package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// shopDir holds a two-target configuration: shop.Order composes AuditMixin
// and CacheMixin with LegacyMixin suppressed; shop.Invoice composes
// AuditMixin.
const shopDir = "testdata/shop"

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

// writeConfig writes a single-file CUE package into a temporary directory.
func writeConfig(t *testing.T, src string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mixins.cue"), []byte("package test\n"+src), 0o644))
	return dir
}

// copyShop copies the shop configuration into a temporary directory so a
// test can edit it.
func copyShop(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{"types.cue", "targets.cue"} {
		data, err := os.ReadFile(filepath.Join(shopDir, name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	return dir
}

func editFile(t *testing.T, path, old, repl string) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	replaced := bytes.Replace(data, []byte(old), []byte(repl), 1)
	require.NotEqual(t, string(data), string(replaced), "edit of %s matched nothing", path)
	require.NoError(t, os.WriteFile(path, replaced, 0o644))
}
