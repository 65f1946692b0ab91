// Package fileio reads scoring inputs from files and writes scored results
// for command-line runs.
package fileio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/bibbank/fraudscore/internal/application/dto"
)

const maxLineSize = 1 << 20

// LineError reports an input line that could not be decoded.
type LineError struct {
	Err  error
	Line int
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// ReadTransactions decodes one JSON transaction per line. Blank lines are
// skipped; undecodable lines are returned as LineErrors and do not stop the
// read.
func ReadTransactions(r io.Reader) ([]dto.TransactionInput, []LineError, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		inputs []dto.TransactionInput
		bad    []LineError
		line   int
	)
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var in dto.TransactionInput
		if err := json.Unmarshal(raw, &in); err != nil {
			bad = append(bad, LineError{Line: line, Err: err})
			continue
		}
		inputs = append(inputs, in)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return inputs, bad, nil
}
