// Command-line tool for Hatanaka compressing and decompressing RINEX observation files.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/de-bkg/gocrinex/pkg/hatanaka"
	"github.com/de-bkg/gocrinex/pkg/rinex"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "rnxgo",
		Usage:   "native Hatanaka compression of RINEX observation files",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load the compression settings from a YAML `FILE`",
			},
			&cli.IntFlag{
				Name:  "order",
				Usage: "differencing order for the observations",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "crx",
				Usage:     "Hatanaka compress RINEX obs files",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "gzip", Aliases: []string{"z"}, Usage: "gzip the compressed file and remove the source"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String("config"), c.Int("order"))
					if err != nil {
						return err
					}
					return forEachFile(c, func(path string) (string, error) {
						if c.Bool("gzip") {
							return hatanaka.CompressFile(path, cfg)
						}
						return hatanaka.Rnx2crx(path, cfg)
					})
				},
			},
			{
				Name:      "rnx",
				Usage:     "Decompress Hatanaka compressed RINEX obs files",
				ArgsUsage: "FILE...",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c.String("config"), c.Int("order"))
					if err != nil {
						return err
					}
					return forEachFile(c, func(path string) (string, error) {
						return hatanaka.Crx2rnx(path, cfg)
					})
				},
			},
			{
				Name:      "info",
				Usage:     "Print header information and statistics of a RINEX or CRINEX obs file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "text", Usage: "output format: text or json"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("info needs one file", 1)
					}
					cfg, err := loadConfig(c.String("config"), c.Int("order"))
					if err != nil {
						return err
					}
					return info(c.Args().First(), cfg, c.String("format"))
				},
			},
			{
				Name:      "diff",
				Usage:     "Compare the observations of two RINEX or CRINEX files",
				ArgsUsage: "FILE1 FILE2",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "satsys", Usage: "compare these satellite systems only, e.g. GR"},
					&cli.Float64Flag{Name: "tolerance", Value: 0.0005, Usage: "maximum difference of the values"},
					&cli.BoolFlag{Name: "snr", Usage: "compare the SNR flags too"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return cli.Exit("diff needs two files to compare", 1)
					}
					cfg, err := loadConfig(c.String("config"), c.Int("order"))
					if err != nil {
						return err
					}
					opts := rinex.DiffOptions{SatSys: c.String("satsys"), Tolerance: c.Float64("tolerance"), CheckSNR: c.Bool("snr")}
					n, err := diff(c.Args().Get(0), c.Args().Get(1), cfg, opts)
					if err != nil {
						return err
					}
					if n > 0 {
						return cli.Exit(fmt.Sprintf("%d differences found", n), 2)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// forEachFile runs conv for all file arguments and prints the resulting filenames.
// The conversion continues with the next file on errors.
func forEachFile(c *cli.Context, conv func(string) (string, error)) error {
	if c.NArg() == 0 {
		return cli.Exit("no files given", 1)
	}
	nErr := 0
	for _, path := range c.Args().Slice() {
		out, err := conv(path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			nErr++
			continue
		}
		fmt.Println(out)
	}
	if nErr > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", nErr, c.NArg()), 1)
	}
	return nil
}

// fileInfo is the output of the info command.
type fileInfo struct {
	Path     string                     `json:"path"`
	Version  float32                    `json:"rinexVersion"`
	CRINEX   string                     `json:"crinexVersion,omitempty"`
	Marker   string                     `json:"markerName"`
	Receiver string                     `json:"receiverType"`
	Antenna  string                     `json:"antennaType"`
	Interval float64                    `json:"interval"`
	ObsTypes map[string][]rinex.ObsCode `json:"obsTypes"`
	Stats    rinex.ObsStats             `json:"stats"`
	Warnings []string                   `json:"warnings,omitempty"`
}

func info(path string, cfg hatanaka.Config, format string) error {
	r, err := hatanaka.Open(path, cfg)
	if err != nil {
		return err
	}
	defer r.Close()

	f, err := rinex.NewObsFile(path)
	if err != nil {
		log.Printf("W! %v", err)
	}
	f.Header = &r.Header
	stats, err := f.ComputeObsStats(r)
	if err != nil {
		return err
	}

	fi := fileInfo{
		Path:     path,
		Version:  r.Header.RINEXVersion,
		Marker:   r.Header.MarkerName,
		Receiver: r.Header.ReceiverType,
		Antenna:  r.Header.AntennaType,
		Interval: r.Header.Interval,
		ObsTypes: make(map[string][]rinex.ObsCode, len(r.Header.ObsTypes)),
		Stats:    stats,
		Warnings: f.Warnings,
	}
	if r.Header.IsCompact() {
		fi.CRINEX = r.Header.CRINEX.Version
	}
	for sys, types := range r.Header.ObsTypes {
		fi.ObsTypes[sys.Abbr()] = types
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fi)
	}

	fmt.Printf("File:          %s\n", fi.Path)
	fmt.Printf("RINEX version: %.2f\n", fi.Version)
	if fi.CRINEX != "" {
		fmt.Printf("CRINEX:        %s (%s)\n", fi.CRINEX, r.Header.CRINEX.Pgm)
	}
	fmt.Printf("Marker:        %s\n", fi.Marker)
	fmt.Printf("Receiver:      %s\n", fi.Receiver)
	fmt.Printf("Antenna:       %s\n", fi.Antenna)
	for _, sys := range r.Header.SatSystems() {
		fmt.Printf("Obs types %s:   %v\n", sys.Abbr(), r.Header.ObsTypes[sys])
	}
	fmt.Printf("Epochs:        %d\n", stats.NumEpochs)
	fmt.Printf("Satellites:    %d\n", stats.NumSatellites)
	fmt.Printf("Sampling:      %v\n", stats.Sampling)
	fmt.Printf("First epoch:   %v\n", stats.TimeOfFirstObs)
	fmt.Printf("Last epoch:    %v\n", stats.TimeOfLastObs)
	for flag, n := range stats.Events {
		fmt.Printf("Events %s:  %d\n", flag, n)
	}
	for _, w := range fi.Warnings {
		fmt.Printf("W! %s\n", w)
	}
	return nil
}

// diff prints the differing observations of two files and returns their number.
func diff(path1, path2 string, cfg hatanaka.Config, opts rinex.DiffOptions) (int, error) {
	r1, err := hatanaka.Open(path1, cfg)
	if err != nil {
		return 0, err
	}
	defer r1.Close()

	r2, err := hatanaka.Open(path2, cfg)
	if err != nil {
		return 0, err
	}
	defer r2.Close()

	diffs, err := rinex.Diff(r1, r2, opts)
	for _, d := range diffs {
		fmt.Println(d)
	}
	return len(diffs), err
}
