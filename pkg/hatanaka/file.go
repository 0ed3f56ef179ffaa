package hatanaka

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/de-bkg/gocrinex/pkg/rinex"
	"github.com/klauspost/compress/gzip"
	"github.com/mholt/archiver/v3"
)

var gzipMagic = []byte{0x1f, 0x8b}

// ObsReader reads the epochs of a RINEX or Compact RINEX observation file.
// Gzip compressed files are decompressed on the fly.
type ObsReader struct {
	rinex.EpochReader
	Header rinex.ObsHeader
	f      *os.File
	gz     *gzip.Reader
}

// Open opens the observation file path and reads its header.
// The file content decides whether it is Hatanaka compressed, not its name.
func Open(path string, cfg Config) (*ObsReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &ObsReader{f: f}

	br := bufio.NewReader(f)
	var src io.Reader = br
	if magic, err := br.Peek(2); err == nil && bytes.Equal(magic, gzipMagic) {
		r.gz, err = gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %v", path, err)
		}
		src = r.gz
	} else if strings.HasSuffix(path, ".Z") {
		f.Close()
		return nil, fmt.Errorf("open %s: unix compress is not supported", path)
	}

	obsDec, err := rinex.NewObsDecoder(src)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r.Header = obsDec.Header
	r.EpochReader = obsDec
	if obsDec.Header.IsCompact() {
		dec, err := newDecoder(obsDec, cfg)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		r.EpochReader = dec
	}
	return r, nil
}

// Close closes the file.
func (r *ObsReader) Close() error {
	var err error
	if r.gz != nil {
		err = r.gz.Close()
	}
	return errors.Join(err, r.f.Close())
}

// Rnx2crx Hatanaka compresses a RINEX obs file (compact RINEX) and returns the compressed filename.
// The rnxFilename must be a valid RINEX filename, it may be gzip compressed.
// The compressed file is written to the same directory. The source file is kept.
func Rnx2crx(rnxFilename string, cfg Config) (string, error) {
	// Check if file is already Hata compressed.
	if rinex.IsHatanakaCompressed(rnxFilename) {
		return rnxFilename, nil
	}

	crxFilename, err := rinex.CompactFilename(rnxFilename)
	if err != nil {
		return "", fmt.Errorf("rnx2crx: %v", err)
	}

	r, err := Open(rnxFilename, cfg)
	if err != nil {
		return "", fmt.Errorf("rnx2crx: %w", err)
	}
	defer r.Close()
	if r.Header.IsCompact() {
		return "", fmt.Errorf("rnx2crx: %s is already Hatanaka compressed", rnxFilename)
	}

	err = writeFile(crxFilename, func(w io.Writer) error {
		enc, err := NewEncoder(w, r.Header, cfg)
		if err != nil {
			return err
		}
		for r.NextEpoch() {
			if err := enc.Encode(r.Epoch()); err != nil {
				return err
			}
		}
		if err := r.Err(); err != nil {
			return err
		}
		return enc.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("rnx2crx: %w", err)
	}
	return crxFilename, nil
}

// Crx2rnx decompresses a Hatanaka-compressed RINEX obs file and returns the decompressed filename.
// The crxFilename must be a valid RINEX filename, it may be gzip compressed.
// The decompressed file is written to the same directory. The source file is kept.
func Crx2rnx(crxFilename string, cfg Config) (string, error) {
	// Check if file is already Hata decompressed.
	if !rinex.IsHatanakaCompressed(crxFilename) {
		return crxFilename, nil
	}

	rnxFilename, err := rinex.ExpandedFilename(crxFilename)
	if err != nil {
		return "", fmt.Errorf("crx2rnx: %v", err)
	}

	r, err := Open(crxFilename, cfg)
	if err != nil {
		return "", fmt.Errorf("crx2rnx: %w", err)
	}
	defer r.Close()
	if !r.Header.IsCompact() {
		return "", fmt.Errorf("crx2rnx: %s: %w", crxFilename, ErrNotCompact)
	}

	err = writeFile(rnxFilename, func(w io.Writer) error {
		enc, err := rinex.NewObsEncoder(w, r.Header)
		if err != nil {
			return err
		}
		for r.NextEpoch() {
			if err := enc.Encode(r.Epoch()); err != nil {
				return err
			}
		}
		if err := r.Err(); err != nil {
			return err
		}
		return enc.Flush()
	})
	if err != nil {
		return "", fmt.Errorf("crx2rnx: %w", err)
	}
	return rnxFilename, nil
}

// CompressFile compresses an observation file using Hatanaka first and then gzip.
// The source file will be removed if the compression finishes without errors.
func CompressFile(path string, cfg Config) (string, error) {
	lower := strings.ToLower(path)
	if rinex.IsHatanakaCompressed(path) && strings.HasSuffix(lower, ".gz") {
		return path, nil
	}

	crxPath, err := Rnx2crx(path, cfg)
	if err != nil {
		return "", err
	}

	gzPath := crxPath + ".gz"
	if err := archiver.CompressFile(crxPath, gzPath); err != nil {
		os.Remove(gzPath)
		return "", fmt.Errorf("compress %s: %v", crxPath, err)
	}
	os.Remove(crxPath)
	if path != crxPath {
		os.Remove(path)
	}
	return gzPath, nil
}

// writeFile creates the file path and writes it with fn. The file is removed if fn fails.
func writeFile(path string, fn func(w io.Writer) error) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	err = fn(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if _, serr := os.Stat(path); !errors.Is(serr, os.ErrNotExist) {
			os.Remove(path)
		}
		return err
	}
	return nil
}
