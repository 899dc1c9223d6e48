package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "hash-password", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))
}

func TestHashPassword_RequiresArgument(t *testing.T) {
	_, err := execute(t, "hash-password")
	assert.Error(t, err)
}

func TestList_Embedded(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_init_schema")
}

func TestCreateThenList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")

	out, err := execute(t, "--dir", dir, "create", "add summary url", "Store source URL")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_add_summary_url.up.sql")

	out, err = execute(t, "--dir", dir, "list")
	require.NoError(t, err)
	assert.Equal(t, "000001_add_summary_url\n", out)
}

func TestList_EmptyDirectory(t *testing.T) {
	out, err := execute(t, "--dir", t.TempDir(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no migrations found")
}

func TestStep_RejectsBadCount(t *testing.T) {
	_, err := execute(t, "step")
	assert.Error(t, err)
}
