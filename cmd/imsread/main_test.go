package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-ims/ims"
	"github.com/robert-malhotra/go-ims/internal/config"
)

func runCmd(t *testing.T, command string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(command, args, config.DefaultConfig(), log.New(io.Discard, "", 0), &out)
	return out.String(), err
}

func TestRunHelp(t *testing.T) {
	out, err := runCmd(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: imsread")
	assert.Contains(t, out, "export")
}

func TestRunUnknownCommand(t *testing.T) {
	out, err := runCmd(t, "frobnicate")
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, out, "Unknown command: frobnicate")
}

func TestRunMissingFileArgument(t *testing.T) {
	for _, cmd := range []string{"info", "tree", "surfaces", "points", "export", "plot"} {
		t.Run(cmd, func(t *testing.T) {
			out, err := runCmd(t, cmd)
			assert.ErrorIs(t, err, errUsage)
			assert.Contains(t, out, "expected one .ims file")
		})
	}
}

func TestRunBadFlag(t *testing.T) {
	_, err := runCmd(t, "plot", "-nope", "x.ims")
	assert.ErrorIs(t, err, errUsage)
}

func TestRunOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.ims")
	require.NoError(t, os.WriteFile(path, []byte("not a container"), 0o644))

	_, err := runCmd(t, "info", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ims.ErrIO)
}

func TestParseCrop(t *testing.T) {
	c, err := parseCrop("")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = parseCrop("10, 200,5,50")
	require.NoError(t, err)
	assert.Equal(t, &ims.Crop{XMin: 10, XMax: 200, YMin: 5, YMax: 50}, c)

	for _, bad := range []string{"1,2,3", "a,2,3,4", "5,1,0,10", "0,10,3,3"} {
		_, err := parseCrop(bad)
		assert.Error(t, err, bad)
	}
}

func TestBounds(t *testing.T) {
	assert.Equal(t, "-", bounds(nil))
	assert.Equal(t, "[-1, 3.5]", bounds([]float64{2, -1, 3.5}))
}

func TestExitStatus(t *testing.T) {
	dir := t.TempDir()
	logfile := filepath.Join(dir, "imsread.log")
	cfgPath := filepath.Join(dir, "imsread.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  verbose: true\n  logfile: "+logfile+"\n"), 0o644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, imsread([]string{"-config", cfgPath, "frobnicate"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Unknown command: frobnicate")
	data, err := os.ReadFile(logfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "imsread: running frobnicate")

	stdout.Reset()
	assert.Equal(t, 0, imsread([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Usage: imsread")

	assert.Equal(t, 2, imsread(nil, &stdout, &stderr))
	assert.Equal(t, 2, imsread([]string{"-nope"}, &stdout, &stderr))

	broken := filepath.Join(dir, "broken.ims")
	require.NoError(t, os.WriteFile(broken, []byte("not a container"), 0o644))
	stderr.Reset()
	assert.Equal(t, 1, imsread([]string{"info", broken}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "imsread: ")
}
