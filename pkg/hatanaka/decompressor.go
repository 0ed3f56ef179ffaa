package hatanaka

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/de-bkg/gocrinex/pkg/gnss"
	"github.com/de-bkg/gocrinex/pkg/rinex"
)

// LineReader is the source of the Compact RINEX data records. rinex.ObsDecoder implements it.
type LineReader interface {
	// ReadLine returns the next line, or false at the end of the input.
	ReadLine() (string, bool)
	// LineNum returns the number of the line read last.
	LineNum() int
}

// field is a parsed numeric field of an observation line.
type field struct {
	present bool
	literal bool // kernel initialization
	order   int
	val     int64
}

// satRecord is a parsed, not yet applied observation line.
type satRecord struct {
	prn      gnss.PRN
	obsTypes []rinex.ObsCode
	fields   []field
	flags    []byte
}

// Decompressor reads Compact RINEX records and recovers the epochs.
// A record is parsed and validated completely before any kernel changes,
// so a malformed record leaves the state untouched.
//
// A Decompressor is not safe for concurrent use.
type Decompressor struct {
	hdr       *rinex.ObsHeader
	r         LineReader
	maxOrder  int
	v3        bool
	epoDiff   *TextDiff
	epoSeeded bool
	flagDiffs map[gnss.PRN]*flagKernel
	numDiffs  map[kernelKey]*numKernel
}

// NewDecompressor returns a Decompressor reading the data records from r.
// The observation types are taken from hdr.
func NewDecompressor(r LineReader, hdr *rinex.ObsHeader, maxOrder int) (*Decompressor, error) {
	if maxOrder > MaxOrder {
		return nil, fmt.Errorf("%w: %d > %d", ErrOrderTooBig, maxOrder, MaxOrder)
	}
	if maxOrder < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, maxOrder)
	}
	return &Decompressor{
		hdr:       hdr,
		r:         r,
		maxOrder:  maxOrder,
		v3:        hdr.RINEXVersion >= 3,
		epoDiff:   NewTextDiff(""),
		flagDiffs: make(map[gnss.PRN]*flagKernel, 60),
		numDiffs:  make(map[kernelKey]*numKernel, 500),
	}, nil
}

// Reset marks all kernels as uninitialized. The next record must be a full record.
func (d *Decompressor) Reset() {
	d.epoSeeded = false
	d.unseed()
}

func (d *Decompressor) unseed() {
	for _, k := range d.numDiffs {
		k.seeded = false
	}
	for _, k := range d.flagDiffs {
		k.seeded = false
	}
}

func (d *Decompressor) errorf(text string, err error, format string, args ...interface{}) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]interface{}{err}, args...)...)
	}
	return &DecodeError{Line: d.r.LineNum(), Text: text, Err: err}
}

// readLine reads a line that must exist.
func (d *Decompressor) readLine() (string, error) {
	line, ok := d.r.ReadLine()
	if !ok {
		return "", &DecodeError{Line: d.r.LineNum(), Err: ErrUnexpectedEOF}
	}
	return line, nil
}

// Decompress reads the next record and returns its epoch. It returns io.EOF if there are no more records.
func (d *Decompressor) Decompress() (*rinex.Epoch, error) {
	var line string
	for {
		l, ok := d.r.ReadLine()
		if !ok {
			return nil, io.EOF
		}
		if l != "" {
			line = l
			break
		}
	}

	// Epoch line
	var desc []byte
	full := false
	switch line[0] {
	case '&', '>':
		full = true
		desc = []byte(line[1:])
	case ' ':
		if !d.epoSeeded {
			return nil, d.errorf(line, ErrUninitializedKernel, "compressed epoch without preceding full record")
		}
		desc = d.epoDiff.recover(line[1:])
	default:
		return nil, d.errorf(line, ErrMalformedEpoch, "")
	}

	epo, sats, err := d.parseDescriptor(desc)
	if err != nil {
		return nil, d.errorf(line, ErrMalformedEpoch, "%v", err)
	}

	// Clock line
	clkLine, err := d.readLine()
	if err != nil {
		return nil, err
	}
	if s := strings.TrimSpace(clkLine); s != "" && !epo.Flag.IsEvent() {
		clk, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, d.errorf(clkLine, ErrMalformedToken, "clock offset")
		}
		epo.ClockOffset = &clk
	}

	if epo.Flag.IsEvent() {
		epo.Events = make([]string, 0, epo.NumSat)
		for ii := 0; ii < epo.NumSat; ii++ {
			ev, err := d.readLine()
			if err != nil {
				return nil, err
			}
			epo.Events = append(epo.Events, ev)
		}
		d.commitEpoch(desc, full)
		return epo, nil
	}

	recs := make([]satRecord, 0, len(sats))
	for _, sat := range sats {
		obsLine, err := d.readLine()
		if err != nil {
			return nil, err
		}
		rec, err := d.parseSatLine(sat, obsLine, full)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	// All records are valid, apply them.
	d.commitEpoch(desc, full)
	epo.ObsList = make([]rinex.SatObs, 0, len(recs))
	for _, rec := range recs {
		epo.ObsList = append(epo.ObsList, d.apply(rec))
	}
	return epo, nil
}

func (d *Decompressor) commitEpoch(desc []byte, full bool) {
	d.epoDiff.buf = desc
	d.epoSeeded = true
	if full {
		d.unseed()
	}
}

// parseDescriptor parses the epoch line without marker.
func (d *Decompressor) parseDescriptor(desc []byte) (*rinex.Epoch, []gnss.PRN, error) {
	timeStart, timeEnd, flagPos, satsPos := 0, 25, 27, 31 // CRINEX 1
	if d.v3 {
		timeStart, timeEnd, flagPos, satsPos = 1, 28, 30, 40
	}
	s := string(desc)
	if len(s) < satsPos {
		s += strings.Repeat(" ", satsPos-len(s))
	}

	epoTime, err := rinex.ParseEpochTime(s[timeStart:timeEnd])
	if err != nil {
		return nil, nil, err
	}

	epo := &rinex.Epoch{Time: epoTime}
	switch c := s[flagPos]; {
	case c == ' ':
	case c >= '0' && c <= '6':
		epo.Flag = rinex.EpochFlag(c - '0')
	default:
		return nil, nil, fmt.Errorf("invalid epoch flag: %q", c)
	}

	numStr := strings.TrimSpace(s[flagPos+1 : flagPos+4])
	if numStr != "" {
		if epo.NumSat, err = strconv.Atoi(numStr); err != nil || epo.NumSat < 0 {
			return nil, nil, fmt.Errorf("invalid number of satellites: %q", numStr)
		}
	}
	if epo.Flag.IsEvent() {
		return epo, nil, nil
	}

	if len(s) < satsPos+3*epo.NumSat {
		return nil, nil, fmt.Errorf("%d satellites expected", epo.NumSat)
	}
	sats := make([]gnss.PRN, 0, epo.NumSat)
	seen := make(map[gnss.PRN]bool, epo.NumSat)
	for ii := 0; ii < epo.NumSat; ii++ {
		pos := satsPos + 3*ii
		prn, err := gnss.NewPRN(s[pos : pos+3])
		if err != nil {
			return nil, nil, err
		}
		if seen[prn] {
			return nil, nil, fmt.Errorf("duplicate satellite %v", prn)
		}
		seen[prn] = true
		sats = append(sats, prn)
	}
	return epo, sats, nil
}

// parseSatLine parses and validates the observation line of sat.
func (d *Decompressor) parseSatLine(sat gnss.PRN, line string, full bool) (satRecord, error) {
	obsTypes, ok := d.hdr.ObsTypesFor(sat.Sys)
	if !ok {
		return satRecord{}, d.errorf(line, ErrMissingObservableDefinition, "%v", sat.Sys)
	}
	rec := satRecord{prn: sat, obsTypes: obsTypes, fields: make([]field, len(obsTypes))}

	pos := 0
	for i, typ := range obsTypes {
		if pos >= len(line) {
			break // the remaining observations are missing
		}
		if line[pos] == ' ' {
			pos++
			continue
		}
		end := strings.IndexByte(line[pos:], ' ')
		if end < 0 {
			end = len(line)
		} else {
			end += pos
		}
		tok := line[pos:end]
		pos = end + 1

		f, err := d.parseField(tok)
		if err != nil {
			return satRecord{}, d.errorf(tok, err, "%v %s", sat, typ)
		}
		if !f.literal {
			k := d.numDiffs[kernelKey{prn: sat, code: typ}]
			if full || k == nil || !k.seeded {
				return satRecord{}, d.errorf(tok, ErrUninitializedKernel, "%v %s", sat, typ)
			}
		}
		rec.fields[i] = f
	}

	patch := ""
	if pos < len(line) {
		patch = line[pos:]
	}
	fk := d.flagDiffs[sat]
	if fk != nil && fk.seeded && !full {
		rec.flags = fk.recover(patch)
	} else {
		rec.flags = (&TextDiff{}).recover(patch)
	}
	for _, c := range rec.flags {
		if _, err := rinex.ParseFlag(c); err != nil {
			return satRecord{}, d.errorf(line, ErrMalformedToken, "%v flags: %v", sat, err)
		}
	}
	return rec, nil
}

// parseField parses a numeric field, either a difference or an initialization "<order>&<value>".
func (d *Decompressor) parseField(tok string) (field, error) {
	f := field{present: true}
	orderStr, valStr, found := strings.Cut(tok, "&")
	if found {
		order, err := strconv.Atoi(orderStr)
		if err != nil {
			return f, ErrMalformedToken
		}
		if order > d.maxOrder {
			return f, ErrOrderTooBig
		}
		if order < 1 {
			return f, ErrInvalidOrder
		}
		f.literal = true
		f.order = order
	} else {
		valStr = tok
	}
	val, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil {
		return f, ErrMalformedToken
	}
	f.val = val
	return f, nil
}

// apply runs the kernels for a validated record.
func (d *Decompressor) apply(rec satRecord) rinex.SatObs {
	fk := d.flagDiffs[rec.prn]
	if fk == nil {
		fk = &flagKernel{TextDiff: &TextDiff{}}
		d.flagDiffs[rec.prn] = fk
	}
	fk.buf = rec.flags
	fk.seeded = true

	obss := make(map[rinex.ObsCode]rinex.Obs, len(rec.obsTypes))
	for i, typ := range rec.obsTypes {
		f := rec.fields[i]
		if !f.present {
			continue
		}
		key := kernelKey{prn: rec.prn, code: typ}
		k := d.numDiffs[key]
		var val int64
		if f.literal {
			if k == nil {
				nd, _ := NewNumDiff(d.maxOrder) // maxOrder was checked in NewDecompressor
				k = &numKernel{NumDiff: nd}
				d.numDiffs[key] = k
			}
			k.ForceInit(f.val, f.order) // order was checked by parseField
			k.seeded = true
			val = f.val
		} else {
			val = k.Decompress(f.val)
		}

		obs := rinex.Obs{Val: float64(val) / 1000}
		if 2*i < len(rec.flags) {
			obs.LLI, _ = rinex.ParseFlag(rec.flags[2*i])
		}
		if 2*i+1 < len(rec.flags) {
			obs.SNR, _ = rinex.ParseFlag(rec.flags[2*i+1])
		}
		obss[typ] = obs
	}
	return rinex.SatObs{Prn: rec.prn, Obss: obss}
}
