package rinex

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/de-bkg/gocrinex/pkg/gnss"
)

// ObsEncoder writes RINEX Observation data to an output stream.
type ObsEncoder struct {
	Header ObsHeader
	w      *bufio.Writer
	buf    strings.Builder
}

// NewObsEncoder creates a new encoder for RINEX Observation data and writes the header.
// The RINEX version of the header determines the layout of the data records.
// Call Flush when done.
func NewObsEncoder(w io.Writer, hdr ObsHeader) (*ObsEncoder, error) {
	if hdr.RINEXVersion == 0 {
		return nil, fmt.Errorf("unknown RINEX Version")
	}
	enc := &ObsEncoder{Header: hdr, w: bufio.NewWriter(w)}
	for _, line := range hdr.Lines() {
		if _, err := enc.w.WriteString(line + "\n"); err != nil {
			return nil, err
		}
	}
	return enc, nil
}

// Encode writes the epoch.
func (enc *ObsEncoder) Encode(epo *Epoch) error {
	enc.buf.Reset()
	var err error
	if enc.Header.RINEXVersion < 3 {
		err = enc.encodeEpochv2(epo)
	} else {
		err = enc.encodeEpoch(epo)
	}
	if err != nil {
		return err
	}
	_, err = enc.w.WriteString(enc.buf.String())
	return err
}

// Flush writes any buffered data to the underlying io.Writer.
func (enc *ObsEncoder) Flush() error {
	return enc.w.Flush()
}

func (enc *ObsEncoder) encodeEpoch(epo *Epoch) error {
	numSat := len(epo.ObsList)
	if epo.Flag.IsEvent() {
		numSat = len(epo.Events)
	}
	fmt.Fprintf(&enc.buf, "> %s  %1d%3d", formatEpochTime(epo.Time, false), epo.Flag, numSat)
	if epo.ClockOffset != nil && !epo.Flag.IsEvent() {
		fmt.Fprintf(&enc.buf, "      %15.12f", *epo.ClockOffset)
	}
	enc.buf.WriteByte('\n')

	if epo.Flag.IsEvent() {
		enc.writeEvents(epo)
		return nil
	}

	for _, satObs := range epo.ObsList {
		obsTypes, ok := enc.Header.ObsTypesFor(satObs.Prn.Sys)
		if !ok {
			return fmt.Errorf("rinex: no observation types for %v", satObs.Prn.Sys)
		}
		var line strings.Builder
		line.WriteString(satObs.Prn.String())
		for _, typ := range obsTypes {
			writeObs(&line, satObs.Obss, typ)
		}
		enc.buf.WriteString(strings.TrimRight(line.String(), " "))
		enc.buf.WriteByte('\n')
	}
	return nil
}

func (enc *ObsEncoder) encodeEpochv2(epo *Epoch) error {
	if epo.Flag.IsEvent() {
		fmt.Fprintf(&enc.buf, " %s  %1d%3d\n", formatEpochTime(epo.Time, true), epo.Flag, len(epo.Events))
		enc.writeEvents(epo)
		return nil
	}

	var line strings.Builder
	fmt.Fprintf(&line, " %s  %1d%3d", formatEpochTime(epo.Time, true), epo.Flag, len(epo.ObsList))
	for i, satObs := range epo.ObsList {
		if i > 0 && i%12 == 0 {
			enc.buf.WriteString(line.String())
			enc.buf.WriteByte('\n')
			line.Reset()
			line.WriteString(strings.Repeat(" ", 32))
		}
		line.WriteString(satObs.Prn.String())
		if i == 11 && epo.ClockOffset != nil {
			fmt.Fprintf(&line, "%12.9f", *epo.ClockOffset)
		}
	}
	if len(epo.ObsList) < 12 && epo.ClockOffset != nil {
		fmt.Fprintf(&line, "%-*s%12.9f", 68-line.Len(), "", *epo.ClockOffset)
	}
	enc.buf.WriteString(line.String())
	enc.buf.WriteByte('\n')

	obsTypes, ok := enc.Header.ObsTypesFor(enc.Header.SatSystem)
	if !ok && len(epo.ObsList) > 0 {
		return fmt.Errorf("rinex2: no observation types")
	}
	for _, satObs := range epo.ObsList {
		line.Reset()
		for ityp, typ := range obsTypes {
			if ityp > 0 && ityp%5 == 0 {
				enc.buf.WriteString(strings.TrimRight(line.String(), " "))
				enc.buf.WriteByte('\n')
				line.Reset()
			}
			writeObs(&line, satObs.Obss, typ)
		}
		enc.buf.WriteString(strings.TrimRight(line.String(), " "))
		enc.buf.WriteByte('\n')
	}
	return nil
}

func (enc *ObsEncoder) writeEvents(epo *Epoch) {
	for _, ev := range epo.Events {
		enc.buf.WriteString(ev)
		enc.buf.WriteByte('\n')
	}
}

// writeObs writes the observation typ in RINEX format F14.3,I1,I1 or blanks if missing.
func writeObs(w *strings.Builder, obss map[ObsCode]Obs, typ ObsCode) {
	obs, ok := obss[typ]
	if !ok {
		w.WriteString(strings.Repeat(" ", 16))
		return
	}
	fmt.Fprintf(w, "%14.3f%c%c", obs.Val, obs.LLI.Char(), obs.SNR.Char())
}

// formatEpochTime formats the epoch time as used in the epoch records.
// The zero time is written as blanks.
func formatEpochTime(t time.Time, v2 bool) string {
	if v2 {
		if t.IsZero() {
			return strings.Repeat(" ", 25)
		}
		return fmt.Sprintf("%02d %2d %2d %2d %2d%11s", t.Year()%100, t.Month(), t.Day(), t.Hour(), t.Minute(), FormatSeconds(t))
	}
	if t.IsZero() {
		return strings.Repeat(" ", 27)
	}
	return fmt.Sprintf("%04d %02d %02d %02d %02d%11s", t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), FormatSeconds(t))
}

// FormatSeconds returns the seconds of t with 7 decimals, e.g. " 30.0000000".
func FormatSeconds(t time.Time) string {
	return fmt.Sprintf("%3d.%07d", t.Second(), t.Nanosecond()/100)
}

// Lines returns the header lines. These are the lines as read if the header was decoded,
// otherwise a minimal header is generated from the fields.
func (hdr *ObsHeader) Lines() []string {
	if len(hdr.Raw) > 0 {
		return hdr.Raw
	}

	lines := make([]string, 0, 10)
	sys := hdr.SatSystem
	if sys == 0 {
		sys = gnss.SysMIXED
	}
	lines = append(lines, headerLine(fmt.Sprintf("%9.2f%11s%-20s%-20s", hdr.RINEXVersion, "", "OBSERVATION DATA", sys.Abbr()), "RINEX VERSION / TYPE"))

	date := hdr.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	lines = append(lines, headerLine(fmt.Sprintf("%-20.20s%-20.20s%s", hdr.Pgm, hdr.RunBy, date.Format(headerDateWithZoneFormat)), "PGM / RUN BY / DATE"))
	for _, c := range hdr.Comments {
		lines = append(lines, headerLine(c, "COMMENT"))
	}
	if hdr.MarkerName != "" {
		lines = append(lines, headerLine(hdr.MarkerName, "MARKER NAME"))
	}

	if hdr.RINEXVersion < 3 {
		types, _ := hdr.ObsTypesFor(hdr.SatSystem)
		lines = append(lines, obsTypesLines(fmt.Sprintf("%6d", len(types)), types, 9, "    %2s", "# / TYPES OF OBSERV")...)
	} else {
		for _, sys := range hdr.SatSystems() {
			types := hdr.ObsTypes[sys]
			lines = append(lines, obsTypesLines(fmt.Sprintf("%1s  %3d", sys.Abbr(), len(types)), types, 13, " %3s", "SYS / # / OBS TYPES")...)
		}
	}

	if hdr.Interval > 0 {
		lines = append(lines, headerLine(fmt.Sprintf("%10.3f", hdr.Interval), "INTERVAL"))
	}
	lines = append(lines, headerLine("", "END OF HEADER"))
	return lines
}

func obsTypesLines(prefix string, types []ObsCode, perLine int, format, label string) []string {
	lines := []string{}
	var b strings.Builder
	b.WriteString(prefix)
	for i, typ := range types {
		if i > 0 && i%perLine == 0 {
			lines = append(lines, headerLine(b.String(), label))
			b.Reset()
			b.WriteString(strings.Repeat(" ", len(prefix)))
		}
		fmt.Fprintf(&b, format, typ)
	}
	return append(lines, headerLine(b.String(), label))
}

func headerLine(val, label string) string {
	return fmt.Sprintf("%-60.60s%s", val, label)
}
