// Package hatanaka implements the Hatanaka compression of RINEX observation data,
// known as Compact RINEX or CRINEX.
//
// Two lossless differencing kernels do the work: TextDiff compresses the epoch lines and
// the flags of a satellite character by character against the previous line, NumDiff
// transmits the m-th order finite difference of the scaled observations. The Compressor and
// the Decompressor apply the kernels per satellite and observation type and produce or consume
// the CRINEX records. Encoder and Decoder add the CRINEX header and work on streams.
//
// See the format description at https://terras.gsi.go.jp/ja/crx2rnx.html.
package hatanaka

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/de-bkg/gocrinex/pkg/rinex"
	"github.com/go-playground/validator/v10"
)

// MaxOrder is the highest supported order of the numeric differencing.
const MaxOrder = 6

const (
	// The date format in the CRINEX PROG / DATE header record.
	crinexDateFormat = "02-Jan-06 15:04"

	labelCrinexVersion = "CRINEX VERS   / TYPE"
	labelCrinexProg    = "CRINEX PROG / DATE"
)

// errors
var (
	// ErrOrderTooBig is returned if a differencing order exceeds the maximum order.
	ErrOrderTooBig = errors.New("hatanaka: order too big")

	// ErrInvalidOrder is returned for a negative order or a maximum order below 1.
	ErrInvalidOrder = errors.New("hatanaka: invalid order")

	// ErrMalformedToken is returned if a numeric field could not be parsed.
	ErrMalformedToken = errors.New("hatanaka: malformed token")

	// ErrUninitializedKernel is returned if a difference arrives for a kernel that was never initialized.
	ErrUninitializedKernel = errors.New("hatanaka: kernel not initialized")

	// ErrMalformedEpoch is returned for an invalid epoch record.
	ErrMalformedEpoch = errors.New("hatanaka: malformed epoch")

	// ErrUnexpectedEOF is returned if the stream ends within a record.
	ErrUnexpectedEOF = errors.New("hatanaka: unexpected end of file")

	// ErrMissingObservableDefinition is returned if the header defines no observation types for a satellite system.
	ErrMissingObservableDefinition = errors.New("hatanaka: missing observable definition")

	// ErrInvalidValue is returned for an observation that is not finite or does not fit the integer range of the kernels.
	ErrInvalidValue = errors.New("hatanaka: invalid observation value")

	// ErrNotCompact is returned when decoding data that does not begin with a CRINEX header.
	ErrNotCompact = errors.New("hatanaka: no CRINEX header")
)

// DecodeError reports an error in the compressed data together with its position.
type DecodeError struct {
	Line int    // The line number in the stream.
	Text string // The offending line or token.
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Config holds the settings for the compression.
type Config struct {
	// Order is the differencing order used for new numeric kernels.
	Order int `yaml:"order" validate:"min=1,max=6,ltefield=MaxOrder"`

	// MaxOrder is the maximum order a kernel accepts, also for decompression.
	MaxOrder int `yaml:"maxOrder" validate:"min=1,max=6"`

	// Pgm is written to the CRINEX PROG / DATE header record.
	Pgm string `yaml:"program" validate:"max=20"`
}

// DefaultConfig returns the default settings, which are the ones of RNX2CRX.
func DefaultConfig() Config {
	return Config{Order: 3, MaxOrder: 5, Pgm: "gocrinex"}
}

// use a single instance of Validate, it caches struct info
var validate = validator.New()

// Validate checks the configuration.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// crinexVersion returns the CRINEX format version for the RINEX version.
func crinexVersion(rnxVersion float32) string {
	if rnxVersion < 3 {
		return "1.0"
	}
	return "3.0"
}

// writeHeader writes the CRINEX header lines followed by the RINEX header.
func writeHeader(w io.Writer, hdr *rinex.ObsHeader, pgm string, now time.Time) error {
	if _, err := fmt.Fprintf(w, "%-20s%-40s%s\n", crinexVersion(hdr.RINEXVersion), "COMPACT RINEX FORMAT", labelCrinexVersion); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-40.40s%-20s%s\n", pgm, now.UTC().Format(crinexDateFormat), labelCrinexProg); err != nil {
		return err
	}
	for _, line := range hdr.Lines() {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}
