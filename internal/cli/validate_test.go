package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidConfig(t *testing.T) {
	out, err := execute(t, "validate", shopDir)
	require.NoError(t, err)
	assert.Equal(t, "✓ Configuration valid (2 target(s))\n", out)
}

func TestValidateValidConfigJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", shopDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Targets)
	assert.Empty(t, resp.Data.Errors)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005") // ErrCodeNotFound
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003") // ErrCodeNoFiles
	assert.Contains(t, out, "no CUE files found")
}

func TestValidateNotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "mixins.cue")
	require.NoError(t, os.WriteFile(file, []byte("package test\n"), 0o644))

	_, err := execute(t, "validate", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestValidateInvalidCUESyntax(t *testing.T) {
	dir := writeConfig(t, `target: "shop.Order": {`)

	_, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E004") // ErrCodeLoadFailed
}

func TestValidateCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
		msg  string
	}{
		{
			name: "unknown target type",
			src:  `target: "shop.Order": mixins: {}`,
			code: ErrCodeInvalidTarget,
			msg:  "shop.Order",
		},
		{
			name: "unknown base",
			src: `type: "shop.Order": base: "shop.Entity"
target: "shop.Order": mixins: {}`,
			code: ErrCodeInvalidType,
			msg:  "shop.Entity",
		},
		{
			name: "bad kind",
			src: `type: "shop.Order": {}
type: "shop.AuditMixin": {}
target: "shop.Order": mixins: "shop.AuditMixin": kind: "borrowed"`,
			code: ErrCodeInvalidTarget,
			msg:  "borrowed",
		},
		{
			name: "no targets",
			src:  `type: "shop.Order": {}`,
			code: ErrCodeNoTargets,
			msg:  "no targets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.src)

			out, err := execute(t, "validate", dir)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, tt.msg)
		})
	}
}

const deadOverrideConfig = `
type: "shop.Order": methods: Total: {}
type: "shop.AuditMixin": methods: Refund: { signature: "(int)", override: "target" }
type: "shop.CacheMixin": {}
target: "shop.Order": mixins: {
	"shop.AuditMixin": {}
	"shop.CacheMixin": { dependencies: ["shop.MissingMixin"] }
}
`

func TestValidateFindings(t *testing.T) {
	dir := writeConfig(t, deadOverrideConfig)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "validation failed with 2 error(s)", err.Error())

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "  E121 target.shop.Order.mixins.shop.AuditMixin\n"+
		"      shop.AuditMixin.Refund(int) overrides no method of shop.Order")
	assert.Contains(t, out, "  E120 target.shop.Order.mixins.shop.CacheMixin.dependencies[0]\n"+
		"      shop.MissingMixin is not a mixin of shop.Order")
}

func TestValidateFindingsJSON(t *testing.T) {
	dir := writeConfig(t, deadOverrideConfig)

	out, err := execute(t, "--format", "json", "validate", dir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, "E121", resp.Error.Code)
	assert.Equal(t, "E121", resp.Data.Errors[0].Code)
	assert.Equal(t, "E120", resp.Data.Errors[1].Code)
}

func TestValidateUnserializableOverride(t *testing.T) {
	dir := writeConfig(t, `
type: "shop.Order": methods: Convert: { signature: "(int)", generic_instance: true }
type: "shop.ConvertMixin": methods: Convert: { signature: "(int)", override: "target" }
target: "shop.Order": mixins: "shop.ConvertMixin": {}
`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Contains(t, out, "E122")
	assert.Contains(t, out, "shop.Order.Convert(int) is a generic method instantiation")
}

func TestValidateCycleWarning(t *testing.T) {
	dir := writeConfig(t, `
type: "shop.Order": {}
type: "shop.A": {}
type: "shop.B": {}
target: "shop.Order": mixins: {
	"shop.A": { dependencies: ["shop.B"] }
	"shop.B": { dependencies: ["shop.A"] }
}
`)

	out, err := execute(t, "validate", dir)
	require.NoError(t, err, "cycles are warnings")
	assert.Contains(t, out, "✓ Configuration valid (1 target(s))")
	assert.Contains(t, out, "⚠ mixin dependency cycle on shop.Order: shop.A → shop.B → shop.A")
}

func TestValidateVerbose(t *testing.T) {
	errBuf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{"-v", "validate", shopDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "Found 2 CUE file(s) in testdata/shop")
}

func TestValidateConfigDir(t *testing.T) {
	errs, err := ValidateConfigDir(shopDir)
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = ValidateConfigDir(writeConfig(t, deadOverrideConfig))
	require.NoError(t, err)
	assert.Len(t, errs, 2)

	_, err = ValidateConfigDir("/nonexistent")
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}
