package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_InvalidConfigReturnsExitCode(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("DETECTOR_INTERVAL", "0")

	assert.Equal(t, 1, run())
}

func TestRun_UnreachableDatabaseReturnsExitCode(t *testing.T) {
	os.Clearenv()
	defer os.Clearenv()

	os.Setenv("DB_HOST", "127.0.0.1")
	os.Setenv("DB_PORT", "1")
	os.Setenv("LOG_LEVEL", "error")
	args := os.Args
	defer func() { os.Args = args }()
	os.Args = []string{"medvault-sync", "check"}

	assert.Equal(t, 1, run())
}
