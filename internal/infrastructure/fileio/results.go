package fileio

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bibbank/fraudscore/internal/application/dto"
)

// Supported result formats.
const (
	FormatJSONLines = "jsonl"
	FormatCSV       = "csv"
)

// WriteResults writes scored rows in the given format.
func WriteResults(w io.Writer, format string, rows []dto.ScoredTransactionResponse) error {
	switch strings.ToLower(format) {
	case FormatJSONLines, "":
		return writeJSONLines(w, rows)
	case FormatCSV:
		return writeCSV(w, rows)
	default:
		return fmt.Errorf("unsupported result format %q", format)
	}
}

func writeJSONLines(w io.Writer, rows []dto.ScoredTransactionResponse) error {
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}
	return nil
}

// writeCSV emits one column per indicator code seen in rows, sorted by code,
// after the fixed columns.
func writeCSV(w io.Writer, rows []dto.ScoredTransactionResponse) error {
	codes := indicatorCodes(rows)
	header := append([]string{
		"account_key", "party_key", "timestamp", "amount", "currency", "sequence",
		"raw_score", "normalized_score", "risk_band", "signals",
	}, codes...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.AccountKey,
			row.PartyKey,
			row.Timestamp.Format(time.RFC3339),
			row.Amount,
			row.Currency,
			strconv.Itoa(row.Sequence),
			strconv.FormatFloat(row.RawScore, 'f', -1, 64),
			strconv.FormatFloat(row.NormalizedScore, 'f', 2, 64),
			row.RiskBand,
			strings.Join(row.Signals, ";"),
		}
		for _, code := range codes {
			record = append(record, strconv.FormatFloat(row.Indicators[code], 'f', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func indicatorCodes(rows []dto.ScoredTransactionResponse) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for code := range row.Indicators {
			seen[code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
