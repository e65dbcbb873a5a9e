package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUERYCHECK_SCHEMA", "a.graphql,b.graphql")

	cfg, err := NewLoader().Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.graphql", "b.graphql"}, cfg.Schema)
	assert.Equal(t, 0, cfg.MaxErrors)
	assert.Equal(t, "human", cfg.Output)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "querycheck", cfg.Server.ServiceName)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "querycheck.yaml", `
schema:
  - schema/*.graphql
max_errors: 5
rules: [FieldsWillMerge]
output: json
server:
  addr: "127.0.0.1:9000"
  timeout: 3s
  cors: ["*"]
`)
	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"schema/*.graphql"}, cfg.Schema)
	assert.Equal(t, 5, cfg.MaxErrors)
	assert.Equal(t, []string{"FieldsWillMerge"}, cfg.Rules)
	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.Timeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORS)
	assert.Equal(t, "querycheck", cfg.Server.ServiceName)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeFile(t, "querycheck.yaml", "schema: [s.graphql]\nmax_errors: 5\noutput: json\n")
	t.Setenv("QUERYCHECK_OUTPUT", "yaml")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("max-errors", 0, "")
	require.NoError(t, fs.Parse([]string{"--max-errors=7"}))

	l := NewLoader()
	require.NoError(t, l.BindFlag("max_errors", fs.Lookup("max-errors")))
	cfg, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxErrors)
	assert.Equal(t, "yaml", cfg.Output)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, "querycheck.yaml", `
schema: [s.graphql]
max_errors: -1
output: xml
server:
  addr: nope
`)
	_, err := NewLoader().Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_errors must be at least 0")
	assert.Contains(t, err.Error(), "output must be one of [human json yaml], got xml")
	assert.Contains(t, err.Error(), `server.addr must be host:port, got "nope"`)
}

func TestLoadRequiresSchema(t *testing.T) {
	_, err := NewLoader().Load("")
	require.EqualError(t, err, "config: schema needs at least 1 entries")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read")
}

func TestBindFlagUnknownKey(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Bool("nope", false, "")
	err := NewLoader().BindFlag("nope", fs.Lookup("nope"))
	require.EqualError(t, err, `config: unknown key "nope"`)
}
