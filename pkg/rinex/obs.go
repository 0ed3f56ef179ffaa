package rinex

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/de-bkg/gocrinex/pkg/gnss"
)

// The RINEX observation code that specifies frequency, signal and tracking mode like "L1C".
type ObsCode string

// DiffOptions sets options for file comparison.
type DiffOptions struct {
	SatSys    string  // satellite systems GRE..., all if empty
	Tolerance float64 // maximum absolute difference of two observations
	CheckSNR  bool    // also compare the signal strength indicators
}

// Coord defines a XYZ coordinate.
type Coord struct {
	X, Y, Z float64
}

// CoordNEU defines a North-, East-, Up-coordinate or eccentrity
type CoordNEU struct {
	N, E, Up float64
}

// Flag is a single character observation flag like the LLI or the SNR.
// The zero value is a blank, i.e. the flag is not set.
type Flag byte

// ParseFlag returns the flag for the character c, which must be a blank or a digit.
func ParseFlag(c byte) (Flag, error) {
	if c == ' ' {
		return 0, nil
	}
	if c < '0' || c > '9' {
		return 0, fmt.Errorf("invalid flag: %q", c)
	}
	return Flag(c), nil
}

// FlagOf returns the flag for the digit n. A negative n returns the unset flag.
func FlagOf(n int) Flag {
	if n < 0 || n > 9 {
		return 0
	}
	return Flag('0' + n)
}

// IsSet returns true if the flag is not blank.
func (f Flag) IsSet() bool {
	return f != 0
}

// Int returns the flags' value, or 0 if the flag is not set.
func (f Flag) Int() int {
	if f == 0 {
		return 0
	}
	return int(f - '0')
}

// Char returns the character that represents the flag in RINEX.
func (f Flag) Char() byte {
	if f == 0 {
		return ' '
	}
	return byte(f)
}

// Obs specifies a RINEX observation.
type Obs struct {
	Val float64 // The observation itself.
	LLI Flag    // LLI is the loss of lock indicator.
	SNR Flag    // SNR is the signal-to-noise ratio.
}

// SatObs contains all observations for a satellite per epoch.
type SatObs struct {
	Prn gnss.PRN // The satellite number or PRN.
	// A map of observations with the obs-code as key. L1C: Obs{Val:0, LLI:0, SNR:0}, L2C: Obs{Val:...},...
	// Observations that are blank in the file are not contained.
	Obss map[ObsCode]Obs
}

// EpochFlag is the RINEX epoch flag.
type EpochFlag uint8

// Epoch flags.
const (
	EpochFlagOK            EpochFlag = iota // OK
	EpochFlagPowerFailure                   // power failure between previous and current epoch
	EpochFlagMovingAntenna                  // start moving antenna
	EpochFlagNewSite                        // new site occupation (end of kinematic data)
	EpochFlagHeaderInfo                     // header information follows
	EpochFlagExternalEvent                  // external event (epoch is significant)
	EpochFlagCycleSlip                      // cycle slip records follow to optionally report detected and repaired cycle slips
)

func (f EpochFlag) String() string {
	if f > EpochFlagCycleSlip {
		return fmt.Sprintf("EpochFlag(%d)", f)
	}
	return [...]string{"OK", "PowerFailure", "MovingAntenna", "NewSite", "HeaderInfo", "ExternalEvent", "CycleSlip"}[f]
}

// IsEvent returns true if the epoch contains special records instead of observations.
func (f EpochFlag) IsEvent() bool {
	return f >= EpochFlagMovingAntenna && f <= EpochFlagExternalEvent
}

// parseEpochFlag parses the epoch flag given as string.
func parseEpochFlag(s string) (EpochFlag, error) {
	if len(s) != 1 || s[0] < '0' || s[0] > '6' {
		return 0, fmt.Errorf("invalid epoch flag: %q", s)
	}
	return EpochFlag(s[0] - '0'), nil
}

// Epoch contains a RINEX obs data epoch.
type Epoch struct {
	Time        time.Time // The epoch time. Zero for event epochs without time.
	Flag        EpochFlag // The epoch flag.
	NumSat      int       // The number of satellites, or the number of special records for event epochs.
	ObsList     []SatObs  // The list of observations per epoch.
	ClockOffset *float64  // The optional receiver clock offset in seconds.
	Events      []string  // The special records of an event epoch, verbatim.
}

// Sats returns the sorted list of unique satellites of the epoch.
func (epo *Epoch) Sats() []gnss.PRN {
	seen := make(map[gnss.PRN]bool, len(epo.ObsList))
	sats := make([]gnss.PRN, 0, len(epo.ObsList))
	for _, satObs := range epo.ObsList {
		if seen[satObs.Prn] {
			continue
		}
		seen[satObs.Prn] = true
		sats = append(sats, satObs.Prn)
	}
	sort.Sort(gnss.ByPRN(sats))
	return sats
}

// ObsStats holds some statistics about a RINEX obs file, derived from the data.
type ObsStats struct {
	NumEpochs      int                        `json:"numEpochs"`      // The number of epochs in the file.
	NumSatellites  int                        `json:"numSatellites"`  // The number of satellites found in the data.
	Sampling       time.Duration              `json:"sampling"`       // The sampling interval derived from the data.
	TimeOfFirstObs time.Time                  `json:"timeOfFirstObs"` // Time of the first observation.
	TimeOfLastObs  time.Time                  `json:"timeOfLastObs"`  // Time of the last observation.
	ObsPerSat      map[string]map[ObsCode]int `json:"obsstats"`       // Number of observations per PRN and observation-type.
	Events         map[EpochFlag]int          `json:"events,omitempty"`
	Systems        map[gnss.System]struct{}   `json:"-"`
}

// CRINEXInfo holds the fields of the Compact RINEX header lines.
type CRINEXInfo struct {
	Version string    // The CRINEX format version, 1.0 or 3.0.
	Pgm     string    // The program that compressed the file.
	Date    time.Time // Date of compression.
}

// A ObsHeader provides the RINEX Observation Header information.
type ObsHeader struct {
	RINEXVersion float32 // RINEX Format version
	RINEXType    string  // RINEX File type. O for Obs
	// The header satellite system. Note that system is "Mixed" if more than one. Use SatSystems() to get a list of all used systems.
	SatSystem gnss.System

	CRINEX *CRINEXInfo // Set if the header was read from a Hatanaka compressed file.

	Pgm   string    // name of program creating this file
	RunBy string    // name of agency creating this file
	Date  time.Time // Date and time of file creation.

	Comments []string // * comment lines

	MarkerName   string // The name of the antenna marker, usually the 9-character station ID.
	MarkerNumber string // The IERS DOMES number assigned to the station marker is expected.
	MarkerType   string // Type of the marker.

	Observer, Agency string

	ReceiverNumber, ReceiverType, ReceiverVersion string
	AntennaNumber, AntennaType                    string

	Position     Coord    // Geocentric approximate marker position [m]
	AntennaDelta CoordNEU // North,East,Up deltas in [m]

	ObsTypes map[gnss.System][]ObsCode // List of all observation types per GNSS.

	SignalStrengthUnit string
	Interval           float64 // Observation interval in seconds
	TimeOfFirstObs     time.Time
	TimeOfLastObs      time.Time
	GloSlots           map[gnss.PRN]int // GLONASS slot and frequency numbers.
	LeapSeconds        int              // The current number of leap seconds
	NSatellites        int              // Number of satellites, for which observations are stored in the file

	Labels []string // all Header Labels found.

	// Raw holds the RINEX header lines as read, including END OF HEADER.
	// The CRINEX lines are not part of it.
	Raw []string
}

// SatSystems returns all used satellite systems. The header must have been read before.
// For RINEX-2 files use SatSystem().
func (hdr *ObsHeader) SatSystems() []gnss.System {
	if hdr.ObsTypes == nil {
		return []gnss.System{}
	}
	sysList := make([]gnss.System, 0, len(hdr.ObsTypes))
	for sys := range hdr.ObsTypes {
		sysList = append(sysList, sys)
	}
	sort.Slice(sysList, func(i, j int) bool { return sysList[i] < sysList[j] })
	return sysList
}

// ObsTypesFor returns the observation types for the satellite system sys in header order.
// RINEX-2 files define one list for all systems.
func (hdr *ObsHeader) ObsTypesFor(sys gnss.System) ([]ObsCode, bool) {
	if types, ok := hdr.ObsTypes[sys]; ok {
		return types, true
	}
	if hdr.RINEXVersion < 3 {
		types, ok := hdr.ObsTypes[hdr.SatSystem]
		return types, ok
	}
	return nil, false
}

// IsCompact returns true if the header was read from a Compact RINEX file.
func (hdr *ObsHeader) IsCompact() bool {
	return hdr.CRINEX != nil
}

// EpochReader is implemented by all types that iterate over observation epochs.
type EpochReader interface {
	NextEpoch() bool
	Epoch() *Epoch
	Err() error
}

// ObsFile contains fields and methods for RINEX observation files.
// Use NewObsFile() to instantiate a new ObsFile.
type ObsFile struct {
	*RnxFil
	Header   *ObsHeader
	Stats    *ObsStats // Some Obersavation statistics.
	Warnings []string
}

// NewObsFile returns a new ObsFile. The name will be parsed.
func NewObsFile(filepath string) (*ObsFile, error) {
	obsFil := &ObsFile{RnxFil: &RnxFil{Path: filepath}, Header: &ObsHeader{}}
	err := obsFil.parseFilename()
	return obsFil, err
}

// IsHatanakaCompressed returns true if the obs file is Hatanaka compressed, otherwise false.
func (f *ObsFile) IsHatanakaCompressed() bool {
	if f.Header != nil && f.Header.IsCompact() {
		return true
	}
	if f.Format != "" {
		return f.Format == "crx"
	}
	return IsHatanakaCompressed(f.Path)
}

// ComputeObsStats reads all epochs from r and computes some statistics on the observations.
// The header must have been set before.
func (f *ObsFile) ComputeObsStats(r EpochReader) (stats ObsStats, err error) {
	numSat := 60
	if f.Header != nil && f.Header.NSatellites > 0 {
		numSat = f.Header.NSatellites
	}

	obsstats := make(map[string]map[ObsCode]int, numSat)
	stats.Events = map[EpochFlag]int{}
	stats.Systems = map[gnss.System]struct{}{}
	intervals := make([]time.Duration, 0, 10)
	var epoPrev *Epoch

	for r.NextEpoch() {
		epo := r.Epoch()
		if epo.Flag.IsEvent() {
			stats.Events[epo.Flag]++
			continue
		}
		stats.NumEpochs++
		if stats.NumEpochs == 1 {
			stats.TimeOfFirstObs = epo.Time
		}

		for _, obsPerSat := range epo.ObsList {
			prn := obsPerSat.Prn.String()
			stats.Systems[obsPerSat.Prn.Sys] = struct{}{}
			if _, exists := obsstats[prn]; !exists {
				obsstats[prn] = map[ObsCode]int{}
			}
			// number of observations per sat and obs-type
			for obstype := range obsPerSat.Obss {
				obsstats[prn][obstype]++
			}
		}

		if epoPrev != nil && len(intervals) <= 10 {
			intervals = append(intervals, epo.Time.Sub(epoPrev.Time))
		}
		epoPrev = epo
	}
	if err = r.Err(); err != nil {
		return stats, err
	}

	stats.ObsPerSat = obsstats
	stats.NumSatellites = len(obsstats)
	if epoPrev != nil {
		stats.TimeOfLastObs = epoPrev.Time
	}

	// Check observation types, see #637
	if f.Header != nil {
		if types, exists := f.Header.ObsTypes[gnss.SysGPS]; exists {
			for _, typ := range types {
				if typ == "L2P" || typ == "C2P" {
					f.Warnings = append(f.Warnings, "observation types 'L2P' and 'C2P' are not reasonable for GPS")
					break
				}
			}
		}
	}

	// Sampling rate
	if len(intervals) > 0 {
		sort.Slice(intervals, func(i, j int) bool { return intervals[i] < intervals[j] })
		stats.Sampling = intervals[len(intervals)/2]
	}

	f.Stats = &stats
	return stats, nil
}

// ObsDiff describes an observation that differs between two files.
type ObsDiff struct {
	Time       time.Time
	Prn        gnss.PRN
	Code       ObsCode
	Obs1, Obs2 *Obs // nil if missing in the file
}

func (d ObsDiff) String() string {
	format := func(o *Obs) string {
		if o == nil {
			return fmt.Sprintf("%14s %c %c", "-", ' ', ' ')
		}
		return fmt.Sprintf("%14.03f %c %c", o.Val, o.LLI.Char(), o.SNR.Char())
	}
	return fmt.Sprintf("%s %v %s %s | %s", d.Time.Format(time.RFC3339Nano), d.Prn, d.Code, format(d.Obs1), format(d.Obs2))
}

// Diff compares the observations of two epoch streams, e.g. an original and a decompressed file.
// Only epochs with the same timestamp are compared. Event epochs are skipped.
func Diff(r1, r2 EpochReader, opts DiffOptions) ([]ObsDiff, error) {
	diffs := []ObsDiff{}
	s := &syncer{r1: r1, r2: r2}
	for s.next() {
		diffs = append(diffs, diffEpo(s.epo1, s.epo2, opts)...)
	}
	if err := r1.Err(); err != nil {
		return diffs, fmt.Errorf("read epochs stream1: %v", err)
	}
	if err := r2.Err(); err != nil {
		return diffs, fmt.Errorf("read epochs stream2: %v", err)
	}
	return diffs, nil
}

// syncer returns time-synchronized epochs from two observation streams.
type syncer struct {
	r1, r2     EpochReader
	epo1, epo2 *Epoch
}

func (s *syncer) next() bool {
	for s.r1.NextEpoch() {
		s.epo1 = s.r1.Epoch()
		if s.epo1.Flag.IsEvent() {
			continue
		}

		if s.epo2 != nil {
			if s.epo1.Time.Equal(s.epo2.Time) {
				return true
			} else if s.epo2.Time.After(s.epo1.Time) {
				continue // next epo1 needed
			}
		}

		// now we need the next epo2
		for s.r2.NextEpoch() {
			s.epo2 = s.r2.Epoch()
			if s.epo2.Flag.IsEvent() {
				continue
			}
			if s.epo2.Time.Equal(s.epo1.Time) {
				return true
			} else if s.epo2.Time.After(s.epo1.Time) {
				break // next epo1 needed
			}
		}
	}
	return false
}

// compare two epochs
func diffEpo(epo1, epo2 *Epoch, opts DiffOptions) []ObsDiff {
	var diffs []ObsDiff
	for _, obs := range epo1.ObsList {
		if opts.SatSys != "" && !strings.Contains(opts.SatSys, obs.Prn.Sys.Abbr()) {
			continue
		}

		obs2, err := getObsByPRN(epo2.ObsList, obs.Prn)
		if err != nil {
			log.Printf("%s: %v", epo1.Time.Format(time.RFC3339Nano), err)
			continue
		}
		diffs = append(diffs, diffObs(obs, obs2, epo1.Time, opts)...)
	}
	return diffs
}

func getObsByPRN(obslist []SatObs, prn gnss.PRN) (SatObs, error) {
	for _, obs := range obslist {
		if obs.Prn == prn {
			return obs, nil
		}
	}
	return SatObs{}, fmt.Errorf("no oberservations found for prn %v", prn)
}

func diffObs(obs1, obs2 SatObs, epoTime time.Time, opts DiffOptions) []ObsDiff {
	var diffs []ObsDiff
	codes := make(map[ObsCode]struct{}, len(obs1.Obss))
	for k := range obs1.Obss {
		codes[k] = struct{}{}
	}
	for k := range obs2.Obss {
		codes[k] = struct{}{}
	}

	for k := range codes {
		o1, ok1 := obs1.Obss[k]
		o2, ok2 := obs2.Obss[k]
		d := ObsDiff{Time: epoTime, Prn: obs1.Prn, Code: k}
		if ok1 {
			d.Obs1 = &o1
		}
		if ok2 {
			d.Obs2 = &o2
		}
		if !ok1 || !ok2 {
			diffs = append(diffs, d)
			continue
		}
		if (o1.LLI != o2.LLI) || (math.Abs(o1.Val-o2.Val) > opts.Tolerance) || (opts.CheckSNR && o1.SNR != o2.SNR) {
			diffs = append(diffs, d)
		}
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Code < diffs[j].Code })
	return diffs
}

// Convert strings to Obscodes.
func convStringsToObscodes(strs []string) []ObsCode {
	obscodes := make([]ObsCode, 0, len(strs))
	for _, str := range strs {
		obscodes = append(obscodes, ObsCode(str))
	}
	return obscodes
}
