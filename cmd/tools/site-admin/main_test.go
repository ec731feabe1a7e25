package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "s3creto\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3creto")))
}

func TestRegistryCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")

	_, err := execute(t, "", "registry", "add", "--path", path,
		"--id", "crm-lead-create", "--displayName", "Create CRM Lead",
		"--category", "crm", "--taskType", "crm.lead.create")
	require.NoError(t, err)

	_, err = execute(t, "", "registry", "update", "--path", path,
		"--id", "crm-lead-create", "--field", "timeout", "--value", "15s")
	require.NoError(t, err)

	out, err := execute(t, "", "registry", "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 activities")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timeout": "15s"`)
}
