package clicfg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testHome = "/home/testuser"

func TestDefaultConfigDir_NonEmpty(t *testing.T) {
	dir := DefaultConfigDir()
	assert.NotEmpty(t, dir)
	assert.Contains(t, dir, appName)
}

func TestDefaultDataDir_NonEmpty(t *testing.T) {
	dir := DefaultDataDir()
	assert.NotEmpty(t, dir)
	assert.Contains(t, dir, appName)
}

func TestDefaultConfigPath_EndsWithConfigToml(t *testing.T) {
	path := DefaultConfigPath()
	assert.True(t, strings.HasSuffix(path, "config.toml"))
}

func TestLinuxXDGDir_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", appName), linuxXDGDir(testHome, "XDG_CONFIG_HOME", ".config"))
}

func TestLinuxXDGDir_DefaultFallback(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	os.Unsetenv("XDG_CONFIG_HOME")
	assert.Equal(t, filepath.Join(testHome, ".config", appName), linuxXDGDir(testHome, "XDG_CONFIG_HOME", ".config"))
}

func TestDefaultDecsyncDir_FallsBackToHomeDecsync(t *testing.T) {
	dir := DefaultDecsyncDir()
	assert.True(t, strings.HasSuffix(dir, "Decsync"))
}

func TestDefaultLocalDir_MatchesDataDir(t *testing.T) {
	assert.Equal(t, DefaultDataDir(), DefaultLocalDir())
}
