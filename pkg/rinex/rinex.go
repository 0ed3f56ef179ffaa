// Package rinex provides functions for reading and writing RINEX observation files.
// See RINEX format documentation at
// https://igs.org/formats-and-standards/
package rinex

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// rnx3StartTimeFormat is the time format for the start time in RINEX3 file names.
	rnx3StartTimeFormat string = "20060021504"

	// The Date/Time format in the PGM / RUN BY / DATE header record.
	headerDateFormat string = "20060102 150405"

	// The Date/Time format with time zone in the PGM / RUN BY / DATE header record.
	//
	// Format: "yyyymmdd hhmmss zone" with 3–4 character code for the time zone.
	headerDateWithZoneFormat string = "20060102 150405 MST"

	// The RINEX-2 Date/Time format in the PGM / RUN BY / DATE header record.
	// Also used in the CRINEX PROG / DATE record.
	headerDateFormatv2 string = "02-Jan-06 15:04"
)

// errors
var (
	// ErrNoHeader is returned when reading RINEX data that does not begin with a RINEX Header.
	ErrNoHeader = errors.New("RINEX: no header")
)

var (
	// Rnx2FileNamePattern is the regex for RINEX2 filenames.
	Rnx2FileNamePattern = regexp.MustCompile(`(([a-zA-Z0-9]{4})(\d{3})([a-xA-X0])(\d{2})?\.(\d{2})([domnglqfphDOMNGLQFPH]))\.?([a-zA-Z0-9]+)?`)

	// Rnx3FileNamePattern is the regex for RINEX3 filenames.
	Rnx3FileNamePattern = regexp.MustCompile(`((([A-Z0-9]{4})(\d)(\d)([A-Z]{3})_([RSU])_((\d{4})(\d{3})(\d{2})(\d{2}))_(\d{2}[A-Z])_?(\d{2}[CZSMHDU])?_([GREJCSM][MNO]))\.(rnx|crx|RNX|CRX))\.?([a-zA-Z0-9]+)?`)
)

// RnxFil contains fields and methods that can be used by all RINEX file types.
// Usually you won't instantiate a RnxFil directly and use NewObsFile() instead.
type RnxFil struct {
	Path string

	FourCharID     string
	MonumentNumber int
	ReceiverNumber int
	CountryCode    string // ISO 3char
	StartTime      time.Time
	DataSource     string // [RSU]
	FilePeriod     string // 15M, 01D
	DataFreq       string // 30S, not for nav files
	DataType       string // The data type abbreviations GO, RO, MN, MM, ...
	Format         string // rnx, crx, etc. Attention: Format and Hatanaka are dependent!
	Compression    string // gz, ...
}

// IsObsType returns true if the file is a RINEX observation file type.
func (f *RnxFil) IsObsType() bool {
	return strings.HasSuffix(f.DataType, "O")
}

// parseFilename parses the specified filename, which must be a valid RINEX filename,
// and fills its fields.
func (f *RnxFil) parseFilename() error {
	if f.Path == "" {
		return fmt.Errorf("could not parse filename: Path is empty")
	}

	fn := strings.TrimSpace(filepath.Base(f.Path))
	if len(fn) > 20 { // Rnx3
		res := Rnx3FileNamePattern.FindStringSubmatch(fn)
		if res == nil {
			return fmt.Errorf("no RINEX3 filename: %s", fn)
		}
		for k, v := range res {
			switch k {
			case 3:
				f.FourCharID = strings.ToUpper(v)
			case 4:
				i, err := strconv.Atoi(v)
				f.MonumentNumber = i
				if err != nil {
					return fmt.Errorf("could not parse MonumentNumber: %s", v)
				}
			case 5:
				i, err := strconv.Atoi(v)
				f.ReceiverNumber = i
				if err != nil {
					return fmt.Errorf("could not parse ReceiverNumber: %s", v)
				}
			case 6:
				f.CountryCode = strings.ToUpper(v)
			case 7:
				f.DataSource = strings.ToUpper(v)
			case 8:
				t, err := time.Parse(rnx3StartTimeFormat, v)
				if err != nil {
					return fmt.Errorf("could not parse start time: %s: %v", v, err)
				}
				f.StartTime = t
			case 13:
				f.FilePeriod = strings.ToUpper(v)
			case 14:
				f.DataFreq = strings.ToUpper(v)
			case 15:
				f.DataType = strings.ToUpper(v)
			case 16:
				f.Format = strings.ToLower(v)
			case 17:
				f.Compression = v
			}
		}
		return nil
	}

	// Rnx2
	res := Rnx2FileNamePattern.FindStringSubmatch(fn)
	if res == nil {
		return fmt.Errorf("no RINEX2 filename: %s", fn)
	}
	for k, v := range res {
		switch k {
		case 2:
			f.FourCharID = strings.ToUpper(v)
		case 5: // highrate minutes
			if res[4] == "0" {
				f.FilePeriod = "01D"
				f.DataFreq = "30S"
			} else if v != "" {
				f.FilePeriod = "15M"
				f.DataFreq = "01S"
			} else {
				f.FilePeriod = "01H"
				f.DataFreq = "30S"
			}
		case 6: // yr
			doy, err := time.Parse("06002", v+res[3])
			if err != nil {
				return fmt.Errorf("could not parse DoY: %v", err)
			}
			hr, _ := getHourAsDigit(rune(strings.ToLower(res[4])[0]))
			min := 0
			if res[5] != "" && res[5] != "00" { // highrate minutes
				min, _ = strconv.Atoi(res[5])
			}
			f.StartTime = doy.Add(time.Duration(hr)*time.Hour + time.Duration(min)*time.Minute)
		case 7:
			switch strings.ToLower(v) {
			case "o":
				f.Format = "rnx"
				f.DataType = "MO"
			case "d":
				f.DataType = "MO"
				f.Format = "crx"
			case "n":
				f.DataType = "GN"
				f.Format = "rnx"
			case "g":
				f.DataType = "RN"
				f.Format = "rnx"
			default:
				return fmt.Errorf("could not determine the DATA TYPE")
			}
		case 8:
			f.Compression = v
		}
	}

	return nil
}

// IsHatanakaCompressed returns true if the file given by filename is Hatanaka compressed.
// This is checked by the filenames' extension, a trailing compression extension like .gz is ignored.
func IsHatanakaCompressed(filename string) bool {
	fn := filepath.Base(filename)
	if Rnx3FileNamePattern.MatchString(fn) {
		res := Rnx3FileNamePattern.FindStringSubmatch(fn)
		return strings.EqualFold(res[16], "crx")
	}
	if Rnx2FileNamePattern.MatchString(fn) {
		res := Rnx2FileNamePattern.FindStringSubmatch(fn)
		return strings.EqualFold(res[7], "d")
	}
	ext := strings.ToLower(filepath.Ext(fn))
	return ext == ".crx" || (len(ext) == 4 && strings.HasSuffix(ext, "d")) // .21d
}

// CompactFilename returns the name of the Hatanaka compressed file for the RINEX obs file rnxFilename,
// e.g. brst155h.20o -> brst155h.20d and BRUX00BEL_R_20183101900_01H_30S_MO.rnx -> BRUX00BEL_R_20183101900_01H_30S_MO.crx.
// A compression extension like .gz is dropped. The directory is kept.
func CompactFilename(rnxFilename string) (string, error) {
	dir, fn := filepath.Split(rnxFilename)
	var crxFil string
	if Rnx3FileNamePattern.MatchString(fn) {
		ext := "crx"
		if strings.Contains(fn, ".RNX") {
			ext = "CRX"
		}
		crxFil = Rnx3FileNamePattern.ReplaceAllString(fn, "${2}."+ext)
	} else if Rnx2FileNamePattern.MatchString(fn) {
		typ := "d"
		if res := Rnx2FileNamePattern.FindStringSubmatch(fn); res[7] == "O" {
			typ = "D"
		}
		crxFil = Rnx2FileNamePattern.ReplaceAllString(fn, "${2}${3}${4}${5}.${6}"+typ)
	} else {
		return "", fmt.Errorf("file has no standard RINEX extension: %s", fn)
	}

	if crxFil == "" || crxFil == fn {
		return "", fmt.Errorf("could not build compressed filename for %s", fn)
	}
	return filepath.Join(dir, crxFil), nil
}

// ExpandedFilename returns the name of the RINEX obs file for the Hatanaka compressed file crxFilename,
// e.g. brst155h.20d -> brst155h.20o. A compression extension like .gz is dropped. The directory is kept.
func ExpandedFilename(crxFilename string) (string, error) {
	dir, fn := filepath.Split(crxFilename)
	var rnxFil string
	if Rnx3FileNamePattern.MatchString(fn) {
		ext := "rnx"
		if strings.Contains(fn, ".CRX") {
			ext = "RNX"
		}
		rnxFil = Rnx3FileNamePattern.ReplaceAllString(fn, "${2}."+ext)
	} else if Rnx2FileNamePattern.MatchString(fn) {
		typ := "o"
		if res := Rnx2FileNamePattern.FindStringSubmatch(fn); res[7] == "D" {
			typ = "O"
		}
		rnxFil = Rnx2FileNamePattern.ReplaceAllString(fn, "${2}${3}${4}${5}.${6}"+typ)
	} else {
		return "", fmt.Errorf("file has no standard RINEX extension: %s", fn)
	}

	if rnxFil == "" || rnxFil == fn {
		return "", fmt.Errorf("could not build uncompressed filename for %s", fn)
	}
	return filepath.Join(dir, rnxFil), nil
}

// ParseDoy returns the UTC-Time corresponding to the given year and day of year.
func ParseDoy(year, doy int) time.Time {
	y := year
	if year > 80 && year <= 99 {
		y += 1900
	} else if year <= 80 {
		y += 2000
	}
	t := time.Date(y, 1, 0, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration(doy) * time.Hour * 24)
}

// Parse the Date/Time in the PGM / RUN BY / DATE header record.
// It is recommended to use UTC as the time zone. Set zone to LCL if an unknown local time was used.
func parseHeaderDate(date string) (time.Time, error) {
	format := headerDateFormat
	if len(date) == 20 && strings.Contains(date, ":") {
		format = "20060102 15:04:05MST" // teqc
	} else if len(date) == 19 || len(date) == 20 {
		format = headerDateWithZoneFormat
	} else if len(date) == 15 && strings.Contains(date, "-") {
		format = headerDateFormatv2
	} else if len(date) == 18 && strings.Contains(date, "-") {
		format = "02-Jan-06 15:04:05" // unofficial!
	} else if len(date) == 17 && strings.Contains(date, "-") {
		format = "02-Jan-2006 15:04" // unofficial!
	} else if len(date) == 16 && strings.Contains(date, "-") {
		format = "2006-01-02 15:04" // unofficial!
	}

	ti, err := time.Parse(format, date)
	if err != nil {
		return time.Time{}, err
	}
	return ti, nil
}

func getHourAsDigit(char rune) (int, error) {
	hr := int(char) - int('a')
	if hr < 0 || hr > 23 {
		return 0, fmt.Errorf("could not get hour for %c", char)
	}
	return hr, nil
}
