// Package gnss contains common constants and type definitions.
package gnss

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// System is a satellite system.
type System int

// Available satellite systems.
const (
	SysGPS System = iota + 1
	SysGLO
	SysGAL
	SysQZSS
	SysBDS
	SysIRNSS
	SysSBAS
	SysMIXED
)

var sysPerAbbr = map[string]System{
	"G": SysGPS,
	"R": SysGLO,
	"E": SysGAL,
	"J": SysQZSS,
	"C": SysBDS,
	"I": SysIRNSS,
	"S": SysSBAS,
	"M": SysMIXED,
}

func (sys System) String() string {
	// TODO change to NavIC or NAVIC
	return [...]string{"", "GPS", "GLO", "GAL", "QZSS", "BDS", "IRNSS", "SBAS", "MIXED"}[sys]
}

// Abbr returns the systems' abbreviation used in RINEX.
func (sys System) Abbr() string {
	return [...]string{"", "G", "R", "E", "J", "C", "I", "S", "M"}[sys]
}

// MarshalJSON encodes the system by its RINEX abbreviation.
func (sys System) MarshalJSON() ([]byte, error) {
	return json.Marshal(sys.Abbr())
}

// SystemByAbbr returns the satellite system for the RINEX abbreviation abbr, e.g. "G".
func SystemByAbbr(abbr string) (System, bool) {
	sys, ok := sysPerAbbr[abbr]
	return sys, ok
}

// Systems specifies a list of satellite systems.
type Systems []System

// String returns the contained systems in sitelog manner GPS+GLO+...
func (syss Systems) String() string {
	str := make([]string, 0, len(syss))
	for _, sys := range syss {
		str = append(str, sys.String())
	}
	return strings.Join(str, "+")
}

// PRN specifies a GNSS satellite.
type PRN struct {
	Sys System // The satellite system.
	Num int8   // The satellite number.
}

// NewPRN returns a new PRN for the string prn that is e.g. G12.
// A blank system identifier defaults to GPS, as allowed by RINEX-2.
func NewPRN(prn string) (PRN, error) {
	if len(prn) != 3 {
		return PRN{}, fmt.Errorf("invalid satellite: %q", prn)
	}
	abbr := prn[:1]
	if abbr == " " {
		abbr = "G"
	}
	sys, ok := sysPerAbbr[abbr]
	if !ok || sys == SysMIXED {
		return PRN{}, fmt.Errorf("invalid satellite system: %q", prn)
	}
	snum, err := strconv.Atoi(strings.TrimSpace(prn[1:3]))
	if err != nil {
		return PRN{}, fmt.Errorf("parse sat num: %q: %v", prn, err)
	}
	if snum < 1 {
		return PRN{}, fmt.Errorf("check satellite number '%v%d'", sys, snum)
	}
	return PRN{Sys: sys, Num: int8(snum)}, nil
}

// String is a PRN Stringer.
func (prn PRN) String() string {
	return fmt.Sprintf("%s%02d", prn.Sys.Abbr(), prn.Num)
}

// ByPRN implements sort.Interface based on the PRN.
type ByPRN []PRN

func (p ByPRN) Len() int {
	return len(p)
}
func (p ByPRN) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}
func (p ByPRN) Less(i, j int) bool {
	return p[i].String() < p[j].String()
}
