// bls2brs converts source saves to target saves. Files can be passed as
// arguments or dragged onto the executable.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"bls2brs.dev/internal/config"
	"bls2brs.dev/internal/convert"
	"bls2brs.dev/internal/report"
)

func main() {
	var (
		strict     = flag.Bool("strict", false, "fail on the first unmapped brick type instead of dropping it")
		configPath = flag.String("config", "", "path to a YAML config with overrides")
		reportDB   = flag.String("report-db", "", "sqlite path for the cross-run unknown-brick tally (optional)")
	)
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "no bls files given; drag them onto this program's executable, or pass paths as arguments")
		os.Exit(2)
	}

	var cfg config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
	}

	opts := convert.Options{
		Strict:    *strict || cfg.Strict,
		Overrides: cfg.MappingOverrides(),
	}

	dbPath := *reportDB
	if dbPath == "" {
		dbPath = cfg.ReportDB
	}
	var rep *report.DB
	if dbPath != "" {
		var err error
		rep, err = report.Open(dbPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open report db:", err)
			os.Exit(1)
		}
		defer rep.Close()
	}

	failed := false
	for i, path := range paths {
		if i > 0 {
			fmt.Println()
		}
		if err := convertOne(path, opts, rep); err != nil {
			fmt.Fprintf(os.Stderr, "error converting %s: %v\n", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func convertOne(path string, opts convert.Options, rep *report.DB) error {
	fmt.Println("Converting", path)

	if !strings.EqualFold(filepath.Ext(path), ".bls") {
		fmt.Println("extension is not .bls, skipping")
		return nil
	}

	input, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	opts.SaveTime = uint64(time.Now().Unix())
	opts.DescriptionPrefix = fmt.Sprintf("Converted from %s with bls2brs.", filepath.Base(path))

	res, err := convert.Convert(input, opts)
	if err != nil {
		return err
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".brs"
	if err := os.WriteFile(outPath, res.Output, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	if len(res.UnknownTypes) > 0 {
		fmt.Println("Unknown bricks:")
		type tally struct {
			name  string
			count int
		}
		tallies := make([]tally, 0, len(res.UnknownTypes))
		for name, count := range res.UnknownTypes {
			tallies = append(tallies, tally{name, count})
		}
		sort.Slice(tallies, func(i, j int) bool {
			if tallies[i].count != tallies[j].count {
				return tallies[i].count > tallies[j].count
			}
			return tallies[i].name < tallies[j].name
		})
		for _, t := range tallies {
			fmt.Printf("  %-28s %4d bricks\n", t.name, t.count)
		}
	}

	if res.Dropped > 0 {
		fmt.Printf("%d bricks failed to convert\n", res.Dropped)
	}
	fmt.Printf("%d of %d bricks converted successfully (%d warnings), wrote %s (%s)\n",
		res.Converted, res.SourceBricks, len(res.Warnings), outPath, humanize.Bytes(uint64(len(res.Output))))

	if rep != nil {
		if err := rep.RecordUnknown(res.UnknownTypes); err != nil {
			fmt.Fprintln(os.Stderr, "record report:", err)
		}
	}
	return nil
}
