package hatanaka

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
)

func writeTestFile(t *testing.T, dir, name, content string, gz bool) string {
	t.Helper()
	path := filepath.Join(dir, name)
	data := []byte(content)
	if gz {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		data = buf.Bytes()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRnx2crx(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	rnx := writeTestFile(t, dir, "BRUX00BEL_R_20183101900_01H_30S_MO.rnx", obsRnx3, false)

	crx, err := Rnx2crx(rnx, DefaultConfig())
	assert.NoError(err)
	assert.Equal(filepath.Join(dir, "BRUX00BEL_R_20183101900_01H_30S_MO.crx"), crx)
	assert.FileExists(rnx, "source is kept")

	data, err := os.ReadFile(crx)
	assert.NoError(err)
	assert.Equal(crxRnx3, withProgLine(string(data)))

	// already compressed
	got, err := Rnx2crx(crx, DefaultConfig())
	assert.NoError(err)
	assert.Equal(crx, got)

	// back
	assert.NoError(os.Remove(rnx))
	got, err = Crx2rnx(crx, DefaultConfig())
	assert.NoError(err)
	assert.Equal(rnx, got)
	data, err = os.ReadFile(rnx)
	assert.NoError(err)
	assert.Equal(obsRnx3, string(data))
}

func TestRnx2crx_gzip(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	rnx := writeTestFile(t, dir, "brst155h.20o.gz", obsRnx2, true)

	crx, err := Rnx2crx(rnx, DefaultConfig())
	assert.NoError(err)
	assert.Equal(filepath.Join(dir, "brst155h.20d"), crx)

	data, err := os.ReadFile(crx)
	assert.NoError(err)
	assert.Equal(crxRnx2, withProgLine(string(data)))
}

func TestCrx2rnx_gzip(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	crx := writeTestFile(t, dir, "BRST155H.20D.gz", crxRnx2, true)

	rnx, err := Crx2rnx(crx, DefaultConfig())
	assert.NoError(err)
	assert.Equal(filepath.Join(dir, "BRST155H.20O"), rnx)
	data, err := os.ReadFile(rnx)
	assert.NoError(err)
	assert.Equal(obsRnx2, string(data))
}

func TestCrx2rnx_errors(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	// RINEX content with a CRINEX name
	crx := writeTestFile(t, dir, "brst155h.20d", obsRnx2, false)
	_, err := Crx2rnx(crx, DefaultConfig())
	assert.ErrorIs(err, ErrNotCompact)

	// corrupted data, the partial output is removed
	crx = writeTestFile(t, dir, "brst156h.20d", crxRnx2[:strings.Index(crxRnx2, "3&120012001476")], false)
	_, err = Crx2rnx(crx, DefaultConfig())
	assert.ErrorIs(err, ErrUnexpectedEOF)
	assert.NoFileExists(filepath.Join(dir, "brst156h.20o"))

	// valid name, missing file
	_, err = Crx2rnx(filepath.Join(dir, "none0010.20d"), DefaultConfig())
	assert.ErrorIs(err, os.ErrNotExist)

	// name is not RINEX
	_, err = Rnx2crx(writeTestFile(t, dir, "obs.txt", obsRnx2, false), DefaultConfig())
	assert.Error(err)
}

func TestCompressFile(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	rnx := writeTestFile(t, dir, "brst155h.20o", obsRnx2, false)

	gz, err := CompressFile(rnx, DefaultConfig())
	assert.NoError(err)
	assert.Equal(filepath.Join(dir, "brst155h.20d.gz"), gz)
	assert.NoFileExists(rnx)
	assert.NoFileExists(filepath.Join(dir, "brst155h.20d"))

	r, err := Open(gz, DefaultConfig())
	assert.NoError(err)
	defer r.Close()
	assert.True(r.Header.IsCompact())
	n := 0
	for r.NextEpoch() {
		n++
	}
	assert.NoError(r.Err())
	assert.Equal(2, n)

	// nothing to do
	got, err := CompressFile(gz, DefaultConfig())
	assert.NoError(err)
	assert.Equal(gz, got)
}

func TestOpen(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	for _, tt := range []struct {
		name    string
		content string
		gz      bool
		compact bool
	}{
		{"brst155h.20o", obsRnx2, false, false},
		{"brst155h.20d", crxRnx2, false, true},
		{"BRUX00BEL_R_20183101900_01H_30S_MO.rnx.gz", obsRnx3, true, false},
		{"BRUX00BEL_R_20183101900_01H_30S_MO.crx.gz", crxRnx3, true, true},
	} {
		path := writeTestFile(t, dir, tt.name, tt.content, tt.gz)
		r, err := Open(path, DefaultConfig())
		if !assert.NoError(err, tt.name) {
			continue
		}
		assert.Equal(tt.compact, r.Header.IsCompact(), tt.name)
		n := 0
		for r.NextEpoch() {
			n++
		}
		assert.NoError(r.Err(), tt.name)
		assert.Greater(n, 1, tt.name)
		assert.NoError(r.Close())
	}
}

// Hatanaka compress a RINEX file and gzip it afterwards.
func ExampleCompressFile() {
	gz, err := CompressFile("testdata/brst155h.20o", DefaultConfig())
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(gz)
}
