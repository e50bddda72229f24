package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dacapoday/piecetree"
	"github.com/dacapoday/piecetree/piecetable"
	"github.com/dacapoday/piecetree/textbuf"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
table:
  buffer_size: 4096
  search_cache_size: 4
edit:
  reduce_threshold: 2
  eol: crlf
  normalize_eol: false
log:
  level: debug
`

const tomlConfig = `
[table]
buffer_size = 4096
search_cache_size = 4

[edit]
reduce_threshold = 2
eol = "CRLF"
normalize_eol = false

[log]
level = "debug"
`

func TestParse(t *testing.T) {
	for ext, data := range map[string]string{".yaml": yamlConfig, ".yml": yamlConfig, ".toml": tomlConfig} {
		cfg, err := Parse([]byte(data), ext)
		require.NoError(t, err, ext)
		require.Equal(t, 4096, cfg.BufferSize(), ext)
		require.Equal(t, 4, cfg.SearchCacheSize(), ext)
		require.Equal(t, 2, cfg.ReduceThreshold(), ext)
		require.Equal(t, piecetree.CRLF, cfg.DefaultEOL(), ext)
		require.False(t, cfg.NormalizeEOL(), ext)
		require.NotNil(t, cfg.Logger(), ext)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("edit:\n  eol: LF\n"), ".yaml")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Nil(t, cfg.Logger())

	cfg, err = Parse(nil, ".yaml")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg, err = Parse(nil, ".toml")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("table:\n  bufer_size: 1\n"), ".yaml")
	require.Error(t, err)

	_, err = Parse([]byte("[table]\nbufer_size = 1\n"), ".toml")
	require.Error(t, err)

	_, err = Parse([]byte("{}"), ".json")
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Parse([]byte("edit:\n  eol: CR\n"), ".yaml")
	require.ErrorIs(t, err, piecetree.ErrInvalidEndOfLine)

	_, err = Parse([]byte("table:\n  buffer_size: -1\n"), ".yaml")
	require.Error(t, err)

	_, err = Parse([]byte("log:\n  level: loud\n"), ".yaml")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "piecetree.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, cfg.ReduceThreshold())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigAsOption(t *testing.T) {
	cfg := Default()
	cfg.Edit.ReduceThreshold = 1

	chunks := []piecetable.StringBuffer{piecetable.NewStringBuffer([]byte("ab\ncd"))}
	buf := textbuf.New(chunks, textbuf.Meta{EOL: piecetree.LF, EOLNormalized: true, IsBasicASCII: true}, cfg)
	res, err := buf.ApplyEdits([]textbuf.EditOperation{
		{Range: piecetree.NewRange(1, 1, 1, 2), Text: []byte("A")},
		{Range: piecetree.NewRange(2, 1, 2, 2), Text: []byte("C")},
	}, false)
	require.NoError(t, err)
	require.Len(t, res.Changes, 1)
	require.Equal(t, "Ab\nCd", string(buf.Table().Content()))
}
