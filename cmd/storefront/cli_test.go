package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "t"}
	cmd.Flags().StringP("config", "c", "", "")
	return cmd
}

func TestResolveConfig_FlagWins(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(p, []byte("app:\n  env: test\n"), 0o600))
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "other.yaml"))

	cmd := newConfigCmd()
	require.NoError(t, cmd.Flags().Set("config", p))
	got, err := resolveConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestResolveConfig_Env(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0o600))
	t.Setenv("CONFIG_PATH", p)

	got, err := resolveConfig(newConfigCmd())
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestResolveConfig_Missing(t *testing.T) {
	// 测试工作目录为 cmd/storefront，默认与兜底配置都不存在
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := resolveConfig(newConfigCmd())
	assert.Error(t, err)
}
