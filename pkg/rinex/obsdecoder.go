package rinex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/de-bkg/gocrinex/pkg/gnss"
)

// ObsDecoder reads and decodes header and data records from a RINEX Obs input stream.
type ObsDecoder struct {
	// The Header is valid after NewObsDecoder. The header must exist,
	// otherwise ErrNoHeader will be returned.
	Header  ObsHeader
	sc      *bufio.Scanner
	epo     *Epoch // the current epoch
	lineNum int
	err     error
}

// NewObsDecoder creates a new decoder for RINEX Observation data.
// The RINEX header will be read implicitly. The header must exist.
// The header of a Compact RINEX file is read as well, see ObsHeader.CRINEX.
//
// It is the caller's responsibility to call Close on the underlying reader when done!
func NewObsDecoder(r io.Reader) (*ObsDecoder, error) {
	dec := &ObsDecoder{sc: bufio.NewScanner(r)}
	dec.sc.Buffer(make([]byte, 0, 4096), 1024*1024)
	dec.Header, dec.err = dec.readHeader(0)
	return dec, dec.err
}

// Err returns the first non-EOF error that was encountered by the decoder.
func (dec *ObsDecoder) Err() error {
	if dec.err == io.EOF {
		return nil
	}
	return dec.err
}

// readHeader reads a RINEX Observation header. If the Header does not exist,
// a ErrNoHeader error will be returned. Only maxLines header lines are read if maxLines > 0.
func (dec *ObsDecoder) readHeader(maxLines int) (hdr ObsHeader, err error) {
	hdr.ObsTypes = map[gnss.System][]ObsCode{}
	var rememberSys gnss.System
	if maxLines == 0 {
		maxLines = 900
	}
readln:
	for dec.readLine() {
		line := dec.line()

		if dec.lineNum == 1 {
			if !strings.Contains(line, "RINEX VERS") { // "CRINEX VERS   / TYPE" or "RINEX VERSION / TYPE"
				err = ErrNoHeader
				return
			}
		}

		if len(line) < 60 {
			hdr.Raw = append(hdr.Raw, line)
			continue
		}

		val := line[:60] // RINEX files are ASCII
		key := strings.TrimSpace(line[60:])
		if !strings.HasPrefix(key, "CRINEX") {
			hdr.Raw = append(hdr.Raw, line)
			hdr.Labels = append(hdr.Labels, key)
		}

		switch key {
		case "CRINEX VERS   / TYPE":
			if hdr.CRINEX == nil {
				hdr.CRINEX = &CRINEXInfo{}
			}
			hdr.CRINEX.Version = strings.TrimSpace(val[:20])
		case "CRINEX PROG / DATE":
			if hdr.CRINEX == nil {
				hdr.CRINEX = &CRINEXInfo{}
			}
			hdr.CRINEX.Pgm = strings.TrimSpace(val[:20])
			if date, err := parseHeaderDate(strings.TrimSpace(val[40:])); err == nil {
				hdr.CRINEX.Date = date
			} else {
				log.Printf("W! parse crinex date: %q, %v", val[40:], err)
			}
		case "RINEX VERSION / TYPE":
			if f64, err := strconv.ParseFloat(strings.TrimSpace(val[:20]), 32); err == nil {
				hdr.RINEXVersion = float32(f64)
			} else {
				return hdr, fmt.Errorf("parse RINEX VERSION: %v", err)
			}
			hdr.RINEXType = strings.TrimSpace(val[20:21])
			abbr := strings.TrimSpace(val[40:41])
			if abbr == "" { // blank: GPS
				abbr = "G"
			}
			if sys, ok := gnss.SystemByAbbr(abbr); ok {
				hdr.SatSystem = sys
			} else {
				err = fmt.Errorf("read header: invalid satellite system in line %d: %s", dec.lineNum, line)
				return
			}
		case "PGM / RUN BY / DATE":
			// Additional lines of this type can appear together after the second line, if needed to preserve the history of previous actions on the file.
			if hdr.Pgm != "" {
				continue
			}
			hdr.Pgm = strings.TrimSpace(val[:20])
			hdr.RunBy = strings.TrimSpace(val[20:40])
			if date, err := parseHeaderDate(strings.TrimSpace(val[40:])); err == nil {
				hdr.Date = date
			} else {
				log.Printf("W! parse header date: %q, %v", val[40:], err)
			}
		case "COMMENT":
			hdr.Comments = append(hdr.Comments, strings.TrimSpace(val))
		case "MARKER NAME":
			hdr.MarkerName = strings.TrimSpace(val)
		case "MARKER NUMBER":
			hdr.MarkerNumber = strings.TrimSpace(val[:20])
		case "MARKER TYPE":
			hdr.MarkerType = strings.TrimSpace(val[20:40])
		case "OBSERVER / AGENCY":
			hdr.Observer = strings.TrimSpace(val[:20])
			hdr.Agency = strings.TrimSpace(val[20:])
		case "REC # / TYPE / VERS":
			hdr.ReceiverNumber = strings.TrimSpace(val[:20])
			hdr.ReceiverType = strings.TrimSpace(val[20:40])
			hdr.ReceiverVersion = strings.TrimSpace(val[40:])
		case "ANT # / TYPE":
			hdr.AntennaNumber = strings.TrimSpace(val[:20])
			hdr.AntennaType = strings.TrimSpace(val[20:40])
		case "APPROX POSITION XYZ":
			pos := strings.Fields(val)
			if len(pos) != 3 {
				return hdr, fmt.Errorf("parse approx. position from line: %s", line)
			}
			if f64, err := strconv.ParseFloat(pos[0], 64); err == nil {
				hdr.Position.X = f64
			}
			if f64, err := strconv.ParseFloat(pos[1], 64); err == nil {
				hdr.Position.Y = f64
			}
			if f64, err := strconv.ParseFloat(pos[2], 64); err == nil {
				hdr.Position.Z = f64
			}
		case "ANTENNA: DELTA H/E/N":
			ecc := strings.Fields(val)
			if len(ecc) != 3 {
				return hdr, fmt.Errorf("parse antenna deltas from line: %s", line)
			}
			if f64, err := strconv.ParseFloat(ecc[0], 64); err == nil {
				hdr.AntennaDelta.Up = f64
			}
			if f64, err := strconv.ParseFloat(ecc[1], 64); err == nil {
				hdr.AntennaDelta.E = f64
			}
			if f64, err := strconv.ParseFloat(ecc[2], 64); err == nil {
				hdr.AntennaDelta.N = f64
			}
		case "WAVELENGTH FACT L1/2": // optional (RINEX-2 only)
		case "SYS / # / OBS TYPES":
			var sys gnss.System
			if val[:1] == " " { // line continued
				sys = rememberSys
			} else {
				ok := false
				if sys, ok = gnss.SystemByAbbr(val[:1]); !ok {
					err = fmt.Errorf("read header: invalid satellite system: %q: line %d", val[:1], dec.lineNum)
					return
				}
				rememberSys = sys
				nTypes, err := strconv.Atoi(strings.TrimSpace(val[3:6]))
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.ObsTypes[sys] = make([]ObsCode, 0, nTypes)
			}
			obscodes := convStringsToObscodes(strings.Fields(val[7:]))
			hdr.ObsTypes[sys] = append(hdr.ObsTypes[sys], obscodes...)
		case "# / TYPES OF OBSERV": // RINEX-2
			sys := hdr.SatSystem
			if strings.TrimSpace(val[:6]) != "" { // number of obs types
				nTypes, err := strconv.Atoi(strings.TrimSpace(val[:6]))
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.ObsTypes[sys] = make([]ObsCode, 0, nTypes)
			}
			obscodes := convStringsToObscodes(strings.Fields(val[6:]))
			hdr.ObsTypes[sys] = append(hdr.ObsTypes[sys], obscodes...)
		case "SIGNAL STRENGTH UNIT":
			hdr.SignalStrengthUnit = strings.TrimSpace(val[:20])
		case "INTERVAL":
			if f64, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				hdr.Interval = f64
			}
		case "TIME OF FIRST OBS":
			t, err := ParseEpochTime(val[:43])
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.TimeOfFirstObs = t
		case "TIME OF LAST OBS":
			t, err := ParseEpochTime(val[:43])
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.TimeOfLastObs = t
		case "RCV CLOCK OFFS APPL": // optional
		case "SYS / PHASE SHIFT": // optional. This header line is strongly deprecated and should be ignored by decoders.
		case "SYS / PHASE SHIFTS": // Rnx 3.01
		case "GLONASS SLOT / FRQ #":
			if strings.TrimSpace(val[:3]) != "" { // number of satellites
				nSat, err := strconv.Atoi(strings.TrimSpace(val[:3]))
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				hdr.GloSlots = make(map[gnss.PRN]int, nSat)
			}
			fields := strings.Fields(val[4:])
			for i := 0; i < len(fields)-1; i += 2 {
				prn, err := gnss.NewPRN(fields[i])
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				frq, err := strconv.Atoi(fields[i+1])
				if err != nil {
					return hdr, fmt.Errorf("parse %q: %v", key, err)
				}
				if hdr.GloSlots == nil {
					hdr.GloSlots = map[gnss.PRN]int{}
				}
				hdr.GloSlots[prn] = frq
			}
		case "GLONASS COD/PHS/BIS": // optional. This header line is strongly deprecated and should be ignored by decoders.
		case "LEAP SECONDS": // optional
			i, err := strconv.Atoi(strings.TrimSpace(val[:6]))
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.LeapSeconds = i
		case "# OF SATELLITES": // optional
			i, err := strconv.Atoi(strings.TrimSpace(val[:6]))
			if err != nil {
				return hdr, fmt.Errorf("parse %q: %v", key, err)
			}
			hdr.NSatellites = i
		case "PRN / # OF OBS": // optional
		case "END OF HEADER":
			break readln
		default:
			log.Printf("Header field %q not handled yet", key)
		}

		if maxLines > 0 && dec.lineNum == maxLines {
			break readln
		}
	}

	if err = dec.sc.Err(); err != nil {
		return hdr, err
	}

	if hdr.RINEXVersion == 0 {
		return hdr, fmt.Errorf("unknown RINEX Version")
	}

	return hdr, err
}

// NextEpoch reads the observations for the next epoch.
// It returns false when the scan stops, either by reaching the end of the input or an error.
// Event epochs are returned with their special records in Epoch.Events.
func (dec *ObsDecoder) NextEpoch() bool {
	if dec.err != nil {
		return false
	}
	if dec.Header.RINEXVersion < 3 {
		return dec.nextEpochv2()
	}
	return dec.nextEpoch()
}

// Read RINEX version 2 obs file.
func (dec *ObsDecoder) nextEpochv2() bool {
readln:
	for dec.readLine() {
		line := dec.line()
		if len(strings.TrimSpace(line)) < 1 {
			continue
		}
		if len(line) < 32 {
			dec.setErr(fmt.Errorf("rinex2: invalid epoch line %d: %q", dec.lineNum, line))
			return false
		}

		epoFlag, err := parseEpochFlag(line[28:29])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex2: parse epoch flag in line %d: %q", dec.lineNum, line))
			return false
		}

		epoTime, err := ParseEpochTime(line[1:26])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex2: line %d: %v", dec.lineNum, err))
			return false
		}

		// Number of satellites or special records
		numSat, err := strconv.Atoi(strings.TrimSpace(line[29:32]))
		if err != nil {
			dec.setErr(fmt.Errorf("rinex2: line %d: %v", dec.lineNum, err))
			return false
		}

		dec.epo = &Epoch{Time: epoTime, Flag: epoFlag, NumSat: numSat}
		if epoFlag.IsEvent() {
			if !dec.readEvents(numSat) {
				break readln
			}
			return true
		}

		if len(line) > 68 {
			clk, err := parseClockOffset(line[68:])
			if err != nil {
				dec.setErr(fmt.Errorf("rinex2: parse clock offset in line %d: %v", dec.lineNum, err))
				return false
			}
			dec.epo.ClockOffset = clk
		}

		// Read list of PRNs
		pos := 32
		sats := make([]gnss.PRN, 0, numSat)
		for iSat := 0; iSat < numSat; iSat++ {
			if iSat > 0 && iSat%12 == 0 {
				if ok := dec.readLine(); !ok {
					break readln
				}
				line = dec.line()
				pos = 32
			}
			if pos+3 > len(line) {
				dec.setErr(fmt.Errorf("rinex2: missing satellites in line %d: %q", dec.lineNum, line))
				return false
			}

			prn, err := gnss.NewPRN(line[pos : pos+3]) // blank: GPS
			if err != nil {
				dec.setErr(fmt.Errorf("rinex2: new PRN in line %d: %q: %v", dec.lineNum, line, err))
				return false
			}
			sats = append(sats, prn)
			pos += 3
		}

		dec.epo.ObsList = make([]SatObs, 0, numSat)

		// Read observations
		obsTypes, _ := dec.Header.ObsTypesFor(dec.Header.SatSystem)
		for _, prn := range sats {
			if ok := dec.readLine(); !ok {
				break readln
			}
			line = dec.line()
			linelen := len(line)

			obsPerTyp := make(map[ObsCode]Obs, len(obsTypes))
			pos := 0
			for ityp, typ := range obsTypes {
				if ityp > 0 && ityp%5 == 0 {
					if ok := dec.readLine(); !ok {
						break readln
					}
					line = dec.line()
					linelen = len(line)
					pos = 0
				}
				if pos >= linelen {
					continue
				}
				end := pos + 16
				if end > linelen {
					end = linelen
				}
				obs, ok, err := decodeObs(line[pos:end])
				if err != nil {
					dec.setErr(fmt.Errorf("rinex2: parse %s observation in line %d: %q: %v", typ, dec.lineNum, line, err))
					return false
				}
				if ok {
					obsPerTyp[typ] = obs
				}
				pos += 16
			}
			dec.epo.ObsList = append(dec.epo.ObsList, SatObs{Prn: prn, Obss: obsPerTyp})
		}
		return true
	}

	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex2: read epochs: %v", err))
	} else if dec.epo != nil && len(dec.epo.ObsList) < dec.epo.NumSat && !dec.epo.Flag.IsEvent() {
		dec.setErr(fmt.Errorf("rinex2: unexpected end of file in line %d", dec.lineNum))
	}

	return false // EOF
}

func (dec *ObsDecoder) nextEpoch() bool {
readln:
	for dec.readLine() {
		line := dec.line()
		if len(strings.TrimSpace(line)) < 1 {
			continue
		}

		if !strings.HasPrefix(line, "> ") {
			log.Printf("rinex: stream does not start with epoch line: %q", line) // must not be an error
			continue
		}
		if len(line) < 35 {
			dec.setErr(fmt.Errorf("rinex: invalid epoch line %d: %q", dec.lineNum, line))
			return false
		}

		epoFlag, err := parseEpochFlag(line[31:32])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex: parse epoch flag in line %d: %q: %v", dec.lineNum, line, err))
			return false
		}

		epoTime, err := ParseEpochTime(line[2:29])
		if err != nil {
			dec.setErr(fmt.Errorf("rinex: line %d: %v", dec.lineNum, err))
			return false
		}

		numSat, err := strconv.Atoi(strings.TrimSpace(line[32:35]))
		if err != nil {
			dec.setErr(fmt.Errorf("rinex: line %d: %v", dec.lineNum, err))
			return false
		}

		dec.epo = &Epoch{Time: epoTime, Flag: epoFlag, NumSat: numSat}
		if epoFlag.IsEvent() {
			if !dec.readEvents(numSat) {
				break readln
			}
			return true
		}

		if len(line) > 41 {
			clk, err := parseClockOffset(line[41:])
			if err != nil {
				dec.setErr(fmt.Errorf("rinex: parse clock offset in line %d: %v", dec.lineNum, err))
				return false
			}
			dec.epo.ClockOffset = clk
		}

		dec.epo.ObsList = make([]SatObs, 0, numSat)

		// Read observations
		for ii := 1; ii <= numSat; ii++ {
			if ok := dec.readLine(); !ok {
				break readln
			}
			line = dec.line()
			linelen := len(line)
			if linelen < 3 {
				dec.setErr(fmt.Errorf("rinex: invalid observation line %d: %q", dec.lineNum, line))
				return false
			}

			prn, err := gnss.NewPRN(line[0:3])
			if err != nil {
				dec.setErr(fmt.Errorf("rinex: parse sat num in line %d: %q: %v", dec.lineNum, line, err))
				return false
			}

			obsTypes, ok := dec.Header.ObsTypesFor(prn.Sys)
			if !ok {
				dec.setErr(fmt.Errorf("rinex: no observation types for %v in line %d", prn.Sys, dec.lineNum))
				return false
			}
			obsPerTyp := make(map[ObsCode]Obs, len(obsTypes))
			for ityp, typ := range obsTypes {
				pos := 3 + 16*ityp
				if pos >= linelen {
					break
				}
				end := pos + 16
				if end > linelen {
					end = linelen
				}
				obs, ok, err := decodeObs(line[pos:end])
				if err != nil {
					dec.setErr(fmt.Errorf("rinex: parse %s observation in line %d: %q: %v", typ, dec.lineNum, line, err))
					return false
				}
				if ok {
					obsPerTyp[typ] = obs
				}
			}
			dec.epo.ObsList = append(dec.epo.ObsList, SatObs{Prn: prn, Obss: obsPerTyp})
		}
		return true
	}

	if err := dec.sc.Err(); err != nil {
		dec.setErr(fmt.Errorf("rinex: read epochs: %v", err))
	} else if dec.epo != nil && len(dec.epo.ObsList) < dec.epo.NumSat && !dec.epo.Flag.IsEvent() {
		dec.setErr(fmt.Errorf("rinex: unexpected end of file in line %d", dec.lineNum))
	}

	return false // EOF
}

// readEvents reads the special records of an event epoch.
func (dec *ObsDecoder) readEvents(n int) bool {
	dec.epo.Events = make([]string, 0, n)
	for ii := 1; ii <= n; ii++ {
		if ok := dec.readLine(); !ok {
			dec.setErr(fmt.Errorf("rinex: unexpected end of file in special records, line %d", dec.lineNum))
			return false
		}
		dec.epo.Events = append(dec.epo.Events, dec.line())
	}
	return true
}

// Epoch returns the most recent epoch generated by a call to NextEpoch.
func (dec *ObsDecoder) Epoch() *Epoch {
	return dec.epo
}

// ReadLine returns the next line of the data section. It returns false if an error
// occurs or EOF was reached. Use it to read the data records of formats that share
// the RINEX header, e.g. Compact RINEX.
func (dec *ObsDecoder) ReadLine() (string, bool) {
	if !dec.readLine() {
		if err := dec.sc.Err(); err != nil {
			dec.setErr(err)
		}
		return "", false
	}
	return dec.line(), true
}

// LineNum returns the number of the line that was read last.
func (dec *ObsDecoder) LineNum() int {
	return dec.lineNum
}

// setErr adds an error.
func (dec *ObsDecoder) setErr(err error) {
	dec.err = errors.Join(dec.err, err)
}

// readLine reads the next line into buffer. It returns false if an error
// occurs or EOF was reached.
func (dec *ObsDecoder) readLine() bool {
	if ok := dec.sc.Scan(); !ok {
		return ok
	}
	dec.lineNum++
	return true
}

// line returns the current line.
func (dec *ObsDecoder) line() string {
	return dec.sc.Text()
}

// ParseEpochTime parses the epoch time of a RINEX epoch line, e.g. "2018 11 06 19 00  0.0000000"
// or "18 11  6 19  0  0.0000000". Two-digit years below 80 are in the 21st century.
// A blank string returns the zero time, as it is allowed for some event epochs.
func ParseEpochTime(s string) (time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, nil
	}
	if len(fields) != 6 {
		return time.Time{}, fmt.Errorf("invalid epoch time: %q", s)
	}

	var ymdhm [5]int
	for i := 0; i < 5; i++ {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch time: %q: %v", s, err)
		}
		ymdhm[i] = n
	}
	if ymdhm[0] < 80 {
		ymdhm[0] += 2000
	} else if ymdhm[0] < 100 {
		ymdhm[0] += 1900
	}

	secStr, fracStr, _ := strings.Cut(fields[5], ".")
	sec, err := strconv.Atoi(secStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch seconds: %q: %v", s, err)
	}
	nsec := 0
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		fracStr += strings.Repeat("0", 9-len(fracStr))
		nsec, err = strconv.Atoi(fracStr)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch seconds: %q: %v", s, err)
		}
	}

	return time.Date(ymdhm[0], time.Month(ymdhm[1]), ymdhm[2], ymdhm[3], ymdhm[4], sec, nsec, time.UTC), nil
}

// parseClockOffset parses the optional receiver clock offset. Returns nil if the field is blank.
func parseClockOffset(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f64, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f64, nil
}

// decode an observation of a GNSS obs file. It returns false if the observation is blank.
func decodeObs(s string) (obs Obs, ok bool, err error) {
	// Value
	oEnd := 14
	if len(s) < oEnd {
		oEnd = len(s)
	}
	valStr := strings.TrimSpace(s[:oEnd])
	if valStr == "" {
		return obs, false, nil
	}
	obs.Val, err = strconv.ParseFloat(valStr, 64)
	if err != nil {
		return obs, false, fmt.Errorf("parse obs: %q: %v", s, err)
	}

	// LLI
	if len(s) > 14 {
		if obs.LLI, err = ParseFlag(s[14]); err != nil {
			return obs, false, fmt.Errorf("parse LLI: %q: %v", s, err)
		}
	}

	// SNR
	if len(s) > 15 {
		if obs.SNR, err = ParseFlag(s[15]); err != nil {
			return obs, false, fmt.Errorf("parse SNR: %q: %v", s, err)
		}
	}
	return obs, true, nil
}
