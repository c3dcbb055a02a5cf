package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderUnit(t *testing.T) {
	unit, err := renderUnit("/usr/local/bin/eduseek")
	require.NoError(t, err)

	assert.Contains(t, string(unit), "[Service]\nExecStart=/usr/local/bin/eduseek serve\n")
	assert.Contains(t, string(unit), "WantedBy=default.target")
}

func TestLinuxAutoStarter_InstallUninstall(t *testing.T) {
	var calls []string
	l := &LinuxAutoStarter{
		Dir: t.TempDir(),
		Run: func(args ...string) ([]byte, error) {
			calls = append(calls, strings.Join(args, " "))
			return nil, nil
		},
	}

	require.NoError(t, l.Install("/opt/eduseek"))

	installed, err := l.IsInstalled()
	require.NoError(t, err)
	assert.True(t, installed)

	data, err := os.ReadFile(filepath.Join(l.Dir, "eduseek.service"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "ExecStart=/opt/eduseek serve")

	assert.Equal(t, []string{
		"--user daemon-reload",
		"--user enable eduseek.service",
		"--user start eduseek.service",
	}, calls)

	require.NoError(t, l.Uninstall())
	installed, err = l.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	// Uninstalling twice is not an error.
	assert.NoError(t, l.Uninstall())
}

func TestLinuxAutoStarter_InstallReportsSystemctlFailure(t *testing.T) {
	l := &LinuxAutoStarter{
		Dir: t.TempDir(),
		Run: func(args ...string) ([]byte, error) {
			if args[1] == "enable" {
				return []byte("Failed to connect to bus"), errors.New("exit status 1")
			}
			return nil, nil
		},
	}

	err := l.Install("/opt/eduseek")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to connect to bus")
}
