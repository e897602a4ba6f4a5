package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kemalcanokcan/efatura-extractor/dto"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "18", cfg.DefaultVATRate)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
}

func TestLoadConfigMaxFileSizeOverride(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "2097152")

	cfg := LoadConfig()
	assert.Equal(t, int64(2<<20), cfg.MaxFileSize)
}

func TestCorrespondentsFromFile(t *testing.T) {
	table := []dto.Correspondent{
		{Party: "TEST KURUMU", Keywords: []string{"test"}},
	}
	data, err := json.Marshal(table)
	assert.NoError(t, err)

	path := filepath.Join(t.TempDir(), "correspondents.json")
	assert.NoError(t, os.WriteFile(path, data, 0o644))

	cfg := &Config{CorrespondentFile: path}
	loaded := cfg.Correspondents(nil)
	assert.Len(t, loaded, 1)
	assert.Equal(t, "TEST KURUMU", loaded[0].Party)
}

func TestCorrespondentsFallback(t *testing.T) {
	defaults := []dto.Correspondent{{Party: "VARSAYILAN"}}

	cfg := &Config{}
	assert.Equal(t, defaults, cfg.Correspondents(defaults))

	cfg = &Config{CorrespondentFile: "/nonexistent/table.json"}
	assert.Equal(t, defaults, cfg.Correspondents(defaults))
}
