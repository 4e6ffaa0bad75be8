// Command genmock generates synthetic intervention record CSVs for local
// runs and test fixtures. It draws codes from a real taxonomy so the
// generated records exercise the actual rule predicates, and it pins the
// clock and RNG seed so output is reproducible.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -taxonomy-dir data/taxonomy \
//	  -out data/records \
//	  -provinces madrid,barcelona,mallorca,menorca,ibiza,formentera
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/covidnpi/stringency-etl/internal/domain"
	"github.com/covidnpi/stringency-etl/internal/taxonomy"
)

var windowStart = time.Date(2020, time.September, 1, 0, 0, 0, 0, time.UTC)

const (
	seed       = 42
	windowDays = 180
	recordsPer = 120
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	taxonomyDir := flag.String("taxonomy-dir", "data/taxonomy", "directory containing taxonomy CSV sheets")
	out := flag.String("out", "data/records", "output directory for generated record CSVs")
	provinces := flag.String("provinces", "madrid,barcelona,sevilla,valencia", "comma-separated province keys")
	flag.Parse()

	tax, err := taxonomy.Load(*taxonomyDir)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	codes := tax.BaseCodes()

	// Pin the clock past the generation window so date expansion never
	// truncates mock records differently between runs.
	domain.SetClock(clockwork.NewFakeClockAt(
		windowStart.AddDate(0, 0, windowDays+30),
	))
	defer domain.SetClock(nil)

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, province := range strings.Split(*provinces, ",") {
		province = strings.TrimSpace(province)
		if province == "" {
			continue
		}
		path := filepath.Join(*out, province+".csv")
		if err := writeProvince(path, province, codes, rng); err != nil {
			return fmt.Errorf("generate %s: %w", province, err)
		}
		log.Printf("%s: %d records", province, recordsPer)
	}
	return nil
}

func writeProvince(path, province string, codes []string, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"region", "province", "code", "start_date", "end_date",
		"affected_percentage", "people", "hour", "education_level",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < recordsPer; i++ {
		if err := w.Write(randomRecord(province, codes, rng)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// randomRecord builds one plausible record row: a random code, a 1-30 day
// window inside the generation range, and occasionally a sub-provincial
// percentage, people limit, closing hour or education level.
func randomRecord(province string, codes []string, rng *rand.Rand) []string {
	code := codes[rng.Intn(len(codes))]
	start := windowStart.AddDate(0, 0, rng.Intn(windowDays))
	end := start.AddDate(0, 0, 1+rng.Intn(30))

	pct := ""
	if rng.Intn(5) == 0 {
		pct = strconv.Itoa(10 + 10*rng.Intn(5)) // 10-50%
	}
	people := ""
	if rng.Intn(3) == 0 {
		people = strconv.Itoa([]int{4, 6, 10, 30, 100, 500}[rng.Intn(6)])
	}
	hour := ""
	if rng.Intn(4) == 0 {
		hour = strconv.Itoa([]int{1, 2, 6, 18, 20, 22, 23}[rng.Intn(7)])
	}
	level := ""
	if taxonomy.IsEducationCode(code) && rng.Intn(2) == 0 {
		level = taxonomy.EducationLevels[rng.Intn(len(taxonomy.EducationLevels))]
	}

	return []string{
		"mock", province, code,
		domain.DateKey(start), domain.DateKey(end),
		pct, people, hour, level,
	}
}
