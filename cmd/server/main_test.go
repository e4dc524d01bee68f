package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("SPAM_FAILURE_POLICY", "sometimes")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "SPAM_FAILURE_POLICY")
}

func TestRun_DatabaseUnavailable(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", t.TempDir()+"/missing/dir/match.db")

	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "init db")
}
