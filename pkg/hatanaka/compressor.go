package hatanaka

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/de-bkg/gocrinex/pkg/gnss"
	"github.com/de-bkg/gocrinex/pkg/rinex"
)

// kernelKey identifies the numeric kernel of an observable of a satellite.
type kernelKey struct {
	prn  gnss.PRN
	code rinex.ObsCode
}

// A numKernel must be seeded with a literal value before it transmits differences.
type numKernel struct {
	*NumDiff
	seeded bool
}

type flagKernel struct {
	*TextDiff
	seeded bool
}

// Compressor writes epochs as Compact RINEX records.
// The first epoch and every epoch following one with a flag other than OK are written
// as full records, which also restart all kernels.
//
// A Compressor is not safe for concurrent use.
type Compressor struct {
	hdr       *rinex.ObsHeader
	cfg       Config
	v3        bool
	w         io.Writer
	buf       bytes.Buffer
	compress  bool // epoch compression enabled
	epoDiff   *TextDiff
	flagDiffs map[gnss.PRN]*flagKernel
	numDiffs  map[kernelKey]*numKernel
}

// NewCompressor returns a Compressor that writes the data records to w.
// The observation types are taken from hdr.
func NewCompressor(w io.Writer, hdr *rinex.ObsHeader, cfg Config) (*Compressor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hatanaka: invalid config: %v", err)
	}
	return &Compressor{
		hdr:       hdr,
		cfg:       cfg,
		v3:        hdr.RINEXVersion >= 3,
		w:         w,
		epoDiff:   NewTextDiff(""),
		flagDiffs: make(map[gnss.PRN]*flagKernel, 60),
		numDiffs:  make(map[kernelKey]*numKernel, 500),
	}, nil
}

// Reset forces the next epoch to be written as full record, which restarts all kernels.
func (c *Compressor) Reset() {
	c.compress = false
}

// Compress writes the compressed record of epo.
// The satellites are written in sorted order, duplicates are dropped.
func (c *Compressor) Compress(epo *rinex.Epoch) error {
	sats := epo.Sats()
	if !epo.Flag.IsEvent() {
		for _, sat := range sats {
			if _, ok := c.hdr.ObsTypesFor(sat.Sys); !ok {
				return fmt.Errorf("%w: %v", ErrMissingObservableDefinition, sat.Sys)
			}
			for typ, obs := range satObs(epo, sat) {
				if _, err := scaleObs(obs.Val); err != nil {
					return fmt.Errorf("%w: %v %s", err, sat, typ)
				}
			}
		}
	}

	c.buf.Reset()
	desc := epochDescriptor(epo, sats, c.v3)
	if c.compress {
		c.buf.WriteByte(' ')
		c.buf.WriteString(strings.TrimRight(c.epoDiff.Compress(desc), " "))
	} else {
		c.epoDiff.ForceInit(desc)
		c.unseed()
		if c.v3 {
			c.buf.WriteByte('>')
		} else {
			c.buf.WriteByte('&')
		}
		c.buf.WriteString(desc)
	}
	c.buf.WriteByte('\n')

	if epo.ClockOffset != nil && !epo.Flag.IsEvent() {
		c.buf.WriteString(strconv.FormatFloat(*epo.ClockOffset, 'f', -1, 64))
	}
	c.buf.WriteByte('\n')

	if epo.Flag.IsEvent() {
		for _, ev := range epo.Events {
			c.buf.WriteString(ev)
			c.buf.WriteByte('\n')
		}
	} else {
		for _, sat := range sats {
			if err := c.compressSat(sat, satObs(epo, sat)); err != nil {
				return err
			}
		}
	}

	c.compress = epo.Flag == rinex.EpochFlagOK
	_, err := c.w.Write(c.buf.Bytes())
	return err
}

// compressSat writes the observation line of a satellite.
func (c *Compressor) compressSat(sat gnss.PRN, obss map[rinex.ObsCode]rinex.Obs) error {
	obsTypes, _ := c.hdr.ObsTypesFor(sat.Sys)
	var line strings.Builder
	flags := make([]byte, 0, 2*len(obsTypes))

	for _, typ := range obsTypes {
		key := kernelKey{prn: sat, code: typ}
		k := c.numDiffs[key]
		obs, ok := obss[typ]
		if !ok {
			// a data gap restarts the arc
			if k != nil {
				k.seeded = false
			}
			line.WriteByte(' ')
			flags = append(flags, ' ', ' ')
			continue
		}

		q, _ := scaleObs(obs.Val) // checked in Compress
		if k == nil {
			nd, err := NewNumDiff(c.cfg.MaxOrder)
			if err != nil {
				return err
			}
			k = &numKernel{NumDiff: nd}
			c.numDiffs[key] = k
		}
		if k.seeded {
			line.WriteString(strconv.FormatInt(k.Compress(q), 10))
		} else {
			if err := k.ForceInit(q, c.cfg.Order); err != nil {
				return err
			}
			k.seeded = true
			fmt.Fprintf(&line, "%d&%d", c.cfg.Order, q)
		}
		line.WriteByte(' ')
		flags = append(flags, obs.LLI.Char(), obs.SNR.Char())
	}

	fk := c.flagDiffs[sat]
	if fk != nil && fk.seeded {
		line.WriteString(fk.Compress(string(flags)))
	} else {
		if fk == nil {
			fk = &flagKernel{TextDiff: &TextDiff{}}
			c.flagDiffs[sat] = fk
		}
		fk.ForceInit(string(flags))
		fk.seeded = true
		line.Write(flags)
	}

	c.buf.WriteString(strings.TrimRight(line.String(), " "))
	c.buf.WriteByte('\n')
	return nil
}

// scaleObs returns the observation in units of 0.001 as transmitted by the kernels.
func scaleObs(val float64) (int64, error) {
	q := math.Round(val * 1000)
	if math.IsNaN(q) || q >= math.MaxInt64 || q <= math.MinInt64 {
		return 0, ErrInvalidValue
	}
	return int64(q), nil
}

// unseed marks all kernels for re-seeding.
func (c *Compressor) unseed() {
	for _, k := range c.numDiffs {
		k.seeded = false
	}
	for _, k := range c.flagDiffs {
		k.seeded = false
	}
}

// satObs returns the observations of the first entry for sat.
func satObs(epo *rinex.Epoch, sat gnss.PRN) map[rinex.ObsCode]rinex.Obs {
	for _, so := range epo.ObsList {
		if so.Prn == sat {
			return so.Obss
		}
	}
	return nil
}

// epochDescriptor returns the epoch line as used in Compact RINEX, without the leading marker.
func epochDescriptor(epo *rinex.Epoch, sats []gnss.PRN, v3 bool) string {
	numSat := len(sats)
	if epo.Flag.IsEvent() {
		numSat = len(epo.Events)
		sats = nil
	}

	var b strings.Builder
	if v3 {
		fmt.Fprintf(&b, " %s  %1d%3d      ", formatEpochTime(epo.Time, true), epo.Flag, numSat)
	} else {
		fmt.Fprintf(&b, "%s  %1d%3d", formatEpochTime(epo.Time, false), epo.Flag, numSat)
	}
	for _, sat := range sats {
		b.WriteString(sat.String())
	}
	return b.String()
}

// formatEpochTime formats t with a four-digit year for CRINEX 3 and a two-digit year for CRINEX 1.
// The zero time, allowed for event epochs, is written as blanks.
func formatEpochTime(t time.Time, v3 bool) string {
	if v3 {
		if t.IsZero() {
			return strings.Repeat(" ", 27)
		}
		return fmt.Sprintf("%04d %02d %02d %02d %02d%11s", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), rinex.FormatSeconds(t))
	}
	if t.IsZero() {
		return strings.Repeat(" ", 25)
	}
	return fmt.Sprintf("%02d %02d %02d %02d %02d%11s", t.Year()%100, t.Month(), t.Day(), t.Hour(), t.Minute(), rinex.FormatSeconds(t))
}
