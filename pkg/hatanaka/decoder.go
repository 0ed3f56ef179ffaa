package hatanaka

import (
	"errors"
	"io"

	"github.com/de-bkg/gocrinex/pkg/rinex"
)

// Decoder reads and decodes the header and the data records of a Compact RINEX input stream.
type Decoder struct {
	// The Header is valid after NewDecoder. Header.CRINEX holds the Compact RINEX header fields.
	Header rinex.ObsHeader
	dec    *rinex.ObsDecoder
	decomp *Decompressor
	epo    *rinex.Epoch
	err    error
}

// NewDecoder creates a new decoder for Compact RINEX data. The header is read implicitly.
// ErrNotCompact is returned if the stream is not Hatanaka compressed.
//
// It is the caller's responsibility to call Close on the underlying reader when done!
func NewDecoder(r io.Reader, cfg Config) (*Decoder, error) {
	obsDec, err := rinex.NewObsDecoder(r)
	if err != nil {
		return nil, err
	}
	return newDecoder(obsDec, cfg)
}

// newDecoder continues on a stream whose header was read by obsDec.
func newDecoder(obsDec *rinex.ObsDecoder, cfg Config) (*Decoder, error) {
	if !obsDec.Header.IsCompact() {
		return nil, ErrNotCompact
	}

	dec := &Decoder{Header: obsDec.Header, dec: obsDec}
	var err error
	dec.decomp, err = NewDecompressor(obsDec, &dec.Header, cfg.MaxOrder)
	if err != nil {
		return nil, err
	}
	return dec, nil
}

// NextEpoch decodes the next epoch. It returns false when the scan stops,
// either by reaching the end of the input or an error.
func (dec *Decoder) NextEpoch() bool {
	if dec.err != nil {
		return false
	}
	epo, err := dec.decomp.Decompress()
	if err != nil {
		if err != io.EOF {
			dec.setErr(err)
		}
		if err := dec.dec.Err(); err != nil {
			dec.setErr(err)
		}
		return false
	}
	dec.epo = epo
	return true
}

// Epoch returns the most recent epoch generated by a call to NextEpoch.
func (dec *Decoder) Epoch() *rinex.Epoch {
	return dec.epo
}

// Err returns the first non-EOF error that was encountered by the decoder.
func (dec *Decoder) Err() error {
	return dec.err
}

func (dec *Decoder) setErr(err error) {
	dec.err = errors.Join(dec.err, err)
}
