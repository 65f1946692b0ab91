package fileio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/domain/port"
)

var _ port.ProfileSource = (*ProfileFile)(nil)

// ProfileFile loads account profiles from a file. A .csv file is read as the
// profile export (ACCOUNT_KEY, mean_amt, std_amt, typical_currency); any
// other file as JSON lines.
type ProfileFile struct {
	Path string
}

type profileLine struct {
	StdAmount       *float64 `json:"std_amount"`
	AccountKey      string   `json:"account_key"`
	TypicalCurrency string   `json:"typical_currency"`
	MeanAmount      float64  `json:"mean_amount"`
}

func (f ProfileFile) LoadProfiles(_ context.Context) ([]model.AccountProfile, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(f.Path), ".csv") {
		return ReadProfilesCSV(file)
	}
	return ReadProfilesJSON(file)
}

// ReadProfilesJSON decodes one profile per line. A missing std_amount is
// treated as unknown.
func ReadProfilesJSON(r io.Reader) ([]model.AccountProfile, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var profiles []model.AccountProfile
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var p profileLine
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, LineError{Line: line, Err: err}
		}
		std := math.NaN()
		if p.StdAmount != nil {
			std = *p.StdAmount
		}
		profiles = append(profiles, model.AccountProfile{
			AccountKey:      p.AccountKey,
			TypicalCurrency: p.TypicalCurrency,
			MeanAmount:      p.MeanAmount,
			StdAmount:       std,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	return profiles, nil
}

var profileColumns = map[string][]string{
	"account":  {"account_key"},
	"mean":     {"mean_amt", "mean_amount"},
	"std":      {"std_amt", "std_amount"},
	"currency": {"typical_currency"},
}

// ReadProfilesCSV reads a profile export with a header row. Column names are
// matched case-insensitively; empty statistics are treated as unknown.
func ReadProfilesCSV(r io.Reader) ([]model.AccountProfile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var profiles []model.AccountProfile
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, LineError{Line: line, Err: err}
		}

		mean, err := parseStat(field(record, idx["mean"]))
		if err != nil {
			return nil, LineError{Line: line, Err: err}
		}
		std, err := parseStat(field(record, idx["std"]))
		if err != nil {
			return nil, LineError{Line: line, Err: err}
		}
		profiles = append(profiles, model.AccountProfile{
			AccountKey:      field(record, idx["account"]),
			TypicalCurrency: field(record, idx["currency"]),
			MeanAmount:      mean,
			StdAmount:       std,
		})
	}
	return profiles, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := map[string]int{"currency": -1}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for key, aliases := range profileColumns {
			for _, alias := range aliases {
				if name == alias {
					idx[key] = i
				}
			}
		}
	}
	for _, required := range []string{"account", "mean", "std"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("profile CSV is missing the %s column", profileColumns[required][0])
		}
	}
	return idx, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseStat(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
