package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/de-bkg/gocrinex/pkg/hatanaka"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	assert := assert.New(t)

	cfg, err := loadConfig("", 0)
	assert.NoError(err)
	assert.Equal(hatanaka.DefaultConfig(), cfg)

	cfg, err = loadConfig("", 6)
	assert.NoError(err)
	assert.Equal(hatanaka.Config{Order: 6, MaxOrder: 6, Pgm: "gocrinex"}, cfg)

	path := filepath.Join(t.TempDir(), "codec.yaml")
	assert.NoError(os.WriteFile(path, []byte("order: 2\nmaxOrder: 4\nprogram: rnxgo\n"), 0o644))
	cfg, err = loadConfig(path, 0)
	assert.NoError(err)
	assert.Equal(hatanaka.Config{Order: 2, MaxOrder: 4, Pgm: "rnxgo"}, cfg)

	assert.NoError(os.WriteFile(path, []byte("order: 5\nmaxOrder: 4\n"), 0o644))
	_, err = loadConfig(path, 0)
	assert.Error(err)

	_, err = loadConfig("", 7)
	assert.Error(err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), 0)
	assert.ErrorIs(err, os.ErrNotExist)
}
