package hatanaka

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/de-bkg/gocrinex/pkg/rinex"
)

// Encoder writes Compact RINEX to an output stream.
type Encoder struct {
	Header rinex.ObsHeader
	w      *bufio.Writer
	comp   *Compressor
}

// NewEncoder creates a new encoder and writes the CRINEX header followed by the RINEX header hdr.
// Call Flush when done.
func NewEncoder(w io.Writer, hdr rinex.ObsHeader, cfg Config) (*Encoder, error) {
	if hdr.RINEXVersion == 0 {
		return nil, fmt.Errorf("hatanaka: unknown RINEX Version")
	}
	enc := &Encoder{Header: hdr, w: bufio.NewWriter(w)}
	comp, err := NewCompressor(enc.w, &enc.Header, cfg)
	if err != nil {
		return nil, err
	}
	enc.comp = comp
	if err := writeHeader(enc.w, &enc.Header, cfg.Pgm, time.Now()); err != nil {
		return nil, err
	}
	return enc, nil
}

// Encode compresses and writes the epoch.
func (enc *Encoder) Encode(epo *rinex.Epoch) error {
	return enc.comp.Compress(epo)
}

// Flush writes any buffered data to the underlying io.Writer.
func (enc *Encoder) Flush() error {
	return enc.w.Flush()
}
