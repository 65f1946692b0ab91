package fileio_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/infrastructure/fileio"
)

func sampleRows() []dto.ScoredTransactionResponse {
	ts := time.Date(2025, 3, 4, 2, 15, 0, 0, time.UTC)
	return []dto.ScoredTransactionResponse{
		{
			AccountKey: "ACC-1", PartyKey: "P-1", Timestamp: ts, Amount: "500", Currency: "USD",
			Indicators: map[string]float64{"KI01": 1, "KI18": 1, "KI05_score": 0},
			Signals:    []string{"KI01", "KI18"},
			RawScore:   30, NormalizedScore: 11.538461, RiskBand: "LOW",
		},
		{
			AccountKey: "ACC-2", PartyKey: "P-2", Timestamp: ts, Amount: "10", Currency: "USD", Sequence: 1,
			Indicators: map[string]float64{"KI03": 1},
			Signals:    []string{"KI03"},
			RawScore:   30, NormalizedScore: 11.538461, RiskBand: "LOW",
		},
	}
}

func TestWriteResultsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fileio.WriteResults(&buf, fileio.FormatJSONLines, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var decoded dto.ScoredTransactionResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decoded))
	assert.Equal(t, "ACC-1", decoded.AccountKey)
	assert.Equal(t, []string{"KI01", "KI18"}, decoded.Signals)
}

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fileio.WriteResults(&buf, fileio.FormatCSV, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, []string{"KI01", "KI03", "KI05_score", "KI18"}, header[10:])

	first := records[1]
	assert.Equal(t, "ACC-1", first[0])
	assert.Equal(t, "11.54", first[7])
	assert.Equal(t, "KI01;KI18", first[9])
	assert.Equal(t, []string{"1", "0", "0", "1"}, first[10:])
}

func TestWriteResultsUnknownFormat(t *testing.T) {
	err := fileio.WriteResults(&bytes.Buffer{}, "xlsx", sampleRows())
	assert.Error(t, err)
}
