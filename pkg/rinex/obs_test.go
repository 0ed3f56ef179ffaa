package rinex

import (
	"strings"
	"testing"
	"time"

	"github.com/de-bkg/gocrinex/pkg/gnss"
	"github.com/stretchr/testify/assert"
)

func TestObsFile_parseFilename(t *testing.T) {
	assert := assert.New(t)
	rnx, err := NewObsFile("ALGO01CAN_R_20121601000_15M_01S_GO.rnx.gz")
	assert.NoError(err)
	assert.Equal("ALGO", rnx.FourCharID, "FourCharID")
	assert.Equal(0, rnx.MonumentNumber, "MonumentNumber")
	assert.Equal(1, rnx.ReceiverNumber, "ReceiverNumber")
	assert.Equal("CAN", rnx.CountryCode, "CountryCode")
	assert.Equal("R", rnx.DataSource, "DataSource")
	assert.Equal(time.Date(2012, 6, 8, 10, 0, 0, 0, time.UTC), rnx.StartTime, "StartTime")
	assert.Equal("15M", rnx.FilePeriod, "FilePeriod")
	assert.Equal("01S", rnx.DataFreq, "DataFreq")
	assert.Equal("GO", rnx.DataType, "DataType")
	assert.Equal("rnx", rnx.Format, "Format")
	assert.Equal(false, rnx.IsHatanakaCompressed(), "Hatanaka")
	assert.Equal("gz", rnx.Compression, "Compression")
	t.Logf("RINEX: %+v\n", rnx)

	// Rnx2
	rnx, err = NewObsFile("abmf255u.19d.Z")
	assert.NoError(err)
	assert.Equal("ABMF", rnx.FourCharID, "FourCharID")
	assert.Equal(time.Date(2019, 9, 12, 20, 0, 0, 0, time.UTC), rnx.StartTime, "StartTime")
	assert.Equal("01H", rnx.FilePeriod, "FilePeriod")
	assert.Equal("crx", rnx.Format, "Format")
	assert.Equal(true, rnx.IsHatanakaCompressed(), "Hatanaka")
	assert.Equal("Z", rnx.Compression, "Compression")
	t.Logf("RINEX: %+v\n", rnx)

	rnx, err = NewObsFile("aggo237j.19n.Z ")
	assert.NoError(err)
	assert.Equal("AGGO", rnx.FourCharID, "FourCharID")
	assert.Equal(time.Date(2019, 8, 25, 9, 0, 0, 0, time.UTC), rnx.StartTime, "StartTime")
	assert.Equal("01H", rnx.FilePeriod, "FilePeriod")
	assert.Equal("rnx", rnx.Format, "Format")
	assert.Equal(false, rnx.IsHatanakaCompressed(), "Hatanaka")
	assert.Equal("Z", rnx.Compression, "Compression")
	t.Logf("RINEX: %+v\n", rnx)

	// highrates
	rnx, err = NewObsFile("adis240e00.19d.Z ")
	assert.NoError(err)
	assert.Equal("ADIS", rnx.FourCharID, "FourCharID")
	assert.Equal(time.Date(2019, 8, 28, 4, 0, 0, 0, time.UTC), rnx.StartTime, "StartTime")
	assert.Equal("15M", rnx.FilePeriod, "FilePeriod")
	assert.Equal("crx", rnx.Format, "Format")
	assert.Equal(true, rnx.IsHatanakaCompressed(), "Hatanaka")
	assert.Equal("Z", rnx.Compression, "Compression")
	t.Logf("RINEX: %+v\n", rnx)

	rnx, err = NewObsFile("adis240e15.19d.Z ")
	assert.NoError(err)
	assert.Equal("ADIS", rnx.FourCharID, "FourCharID")
	assert.Equal(time.Date(2019, 8, 28, 4, 15, 0, 0, time.UTC), rnx.StartTime, "StartTime")
	assert.Equal("15M", rnx.FilePeriod, "FilePeriod")
	assert.Equal("crx", rnx.Format, "Format")
	assert.Equal(true, rnx.IsHatanakaCompressed(), "Hatanaka")
	assert.Equal("Z", rnx.Compression, "Compression")
	t.Logf("RINEX: %+v\n", rnx)
}

func TestFlag(t *testing.T) {
	assert := assert.New(t)
	var f Flag
	assert.False(f.IsSet())
	assert.Equal(byte(' '), f.Char())
	assert.Equal(0, f.Int())

	f = FlagOf(0)
	assert.True(f.IsSet(), "0 is not blank")
	assert.Equal(byte('0'), f.Char())

	f, err := ParseFlag('5')
	assert.NoError(err)
	assert.Equal(5, f.Int())
	assert.Equal(FlagOf(5), f)

	f, err = ParseFlag(' ')
	assert.NoError(err)
	assert.False(f.IsSet())

	_, err = ParseFlag('x')
	assert.Error(err)
	assert.False(FlagOf(10).IsSet())
}

func TestEpochFlag(t *testing.T) {
	assert := assert.New(t)
	assert.False(EpochFlagOK.IsEvent())
	assert.False(EpochFlagPowerFailure.IsEvent())
	assert.True(EpochFlagMovingAntenna.IsEvent())
	assert.True(EpochFlagExternalEvent.IsEvent())
	assert.False(EpochFlagCycleSlip.IsEvent())
	assert.Equal("HeaderInfo", EpochFlagHeaderInfo.String())
	assert.Equal("EpochFlag(9)", EpochFlag(9).String())
}

func TestEpoch_Sats(t *testing.T) {
	g5 := gnss.PRN{Sys: gnss.SysGPS, Num: 5}
	r3 := gnss.PRN{Sys: gnss.SysGLO, Num: 3}
	e11 := gnss.PRN{Sys: gnss.SysGAL, Num: 11}
	epo := &Epoch{ObsList: []SatObs{{Prn: r3}, {Prn: g5}, {Prn: e11}, {Prn: g5}}}
	assert.Equal(t, []gnss.PRN{e11, g5, r3}, epo.Sats())
}

func TestObsHeader_ObsTypesFor(t *testing.T) {
	assert := assert.New(t)
	hdr := ObsHeader{RINEXVersion: 3.04, ObsTypes: map[gnss.System][]ObsCode{gnss.SysGPS: {"C1C"}}}
	types, ok := hdr.ObsTypesFor(gnss.SysGPS)
	assert.True(ok)
	assert.Equal([]ObsCode{"C1C"}, types)
	_, ok = hdr.ObsTypesFor(gnss.SysGAL)
	assert.False(ok)

	hdr = ObsHeader{RINEXVersion: 2.11, SatSystem: gnss.SysMIXED, ObsTypes: map[gnss.System][]ObsCode{gnss.SysMIXED: {"L1", "L2"}}}
	types, ok = hdr.ObsTypesFor(gnss.SysGAL)
	assert.True(ok)
	assert.Equal([]ObsCode{"L1", "L2"}, types)
}

func TestObsFile_ComputeObsStats(t *testing.T) {
	assert := assert.New(t)
	dec, err := NewObsDecoder(strings.NewReader(obsRnx3))
	assert.NoError(err)

	f, err := NewObsFile("BRUX00BEL_R_20183101900_01H_30S_MO.crx")
	assert.NoError(err)
	f.Header = &dec.Header
	stats, err := f.ComputeObsStats(dec)
	assert.NoError(err)
	assert.Equal(2, stats.NumEpochs)
	assert.Equal(3, stats.NumSatellites)
	assert.Equal(30*time.Second, stats.Sampling)
	assert.Equal(time.Date(2018, 11, 6, 19, 0, 0, 0, time.UTC), stats.TimeOfFirstObs)
	assert.Equal(time.Date(2018, 11, 6, 19, 0, 30, 0, time.UTC), stats.TimeOfLastObs)
	assert.Equal(map[ObsCode]int{"C1C": 2, "L1C": 2, "D1C": 1, "S1C": 2}, stats.ObsPerSat["G05"])
	assert.Equal(map[ObsCode]int{"C1C": 1, "L1C": 2, "S1C": 1}, stats.ObsPerSat["R03"])
	assert.Equal(1, stats.Events[EpochFlagHeaderInfo])
	assert.Len(stats.Systems, 3)
	assert.Equal(stats, *f.Stats)
	assert.Empty(f.Warnings)
	assert.True(f.IsHatanakaCompressed(), "by extension")
}

func TestDiff(t *testing.T) {
	assert := assert.New(t)
	dec1, err := NewObsDecoder(strings.NewReader(obsRnx3))
	assert.NoError(err)
	dec2, err := NewObsDecoder(strings.NewReader(obsRnx3))
	assert.NoError(err)
	diffs, err := Diff(dec1, dec2, DiffOptions{})
	assert.NoError(err)
	assert.Empty(diffs, "identical")

	// change one value, one LLI and drop an observation
	modified := strings.Replace(obsRnx3, "23619095.450 7", "23619095.451 7", 1)
	modified = strings.Replace(modified, "131392201.45617", "131392201.456 7", 1)
	modified = strings.Replace(modified, "          43.750", "", 1)
	dec1, err = NewObsDecoder(strings.NewReader(obsRnx3))
	assert.NoError(err)
	dec2, err = NewObsDecoder(strings.NewReader(modified))
	assert.NoError(err)
	diffs, err = Diff(dec1, dec2, DiffOptions{Tolerance: 0.0005})
	assert.NoError(err)
	if assert.Len(diffs, 3) {
		assert.Equal(ObsCode("L1C"), diffs[0].Code)
		assert.Equal(gnss.PRN{Sys: gnss.SysGAL, Num: 11}, diffs[0].Prn)
		assert.Equal(ObsCode("C1C"), diffs[1].Code)
		assert.Equal(ObsCode("S1C"), diffs[2].Code)
		assert.Nil(diffs[2].Obs2)
		assert.Contains(diffs[2].String(), "G05 S1C")
	}

	// restrict to GLONASS
	dec1, _ = NewObsDecoder(strings.NewReader(obsRnx3))
	dec2, _ = NewObsDecoder(strings.NewReader(modified))
	diffs, err = Diff(dec1, dec2, DiffOptions{SatSys: "R", Tolerance: 0.0005})
	assert.NoError(err)
	assert.Empty(diffs)
}
