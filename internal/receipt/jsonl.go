package receipt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// maxLineSize caps a single record line; receipts with hundreds of items stay well below it
const maxLineSize = 4 << 20

// JSONLines implements Store as one JSON object per line in a local file
type JSONLines struct {
	mu   sync.Mutex
	path string
}

// NewJSONLines creates a JSON-lines store, creating the parent directory if needed
func NewJSONLines(path string) (*JSONLines, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating results directory: %w", err)
		}
	}
	return &JSONLines{path: path}, nil
}

// Append writes the receipt as a single line at the end of the file
func (j *JSONLines) Append(receipt *Receipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	data = append(data, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening results file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing results file: %w", err)
	}
	return f.Close()
}

// GetReceipt scans the file for a receipt by ID
func (j *JSONLines) GetReceipt(id string) (*Receipt, error) {
	receipts, err := j.ListReceipts()
	if err != nil {
		return nil, err
	}
	for _, r := range receipts {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
}

// ListReceipts returns every readable record in file order. Malformed lines are skipped.
func (j *JSONLines) ListReceipts() ([]*Receipt, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.readAll()
}

// DeleteReceipt rewrites the file without the given receipt
func (j *JSONLines) DeleteReceipt(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	receipts, err := j.readAll()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	found := false
	for _, r := range receipts {
		if r.ID == id {
			found = true
			continue
		}
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshaling receipt: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	if !found {
		return fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}

	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing results file: %w", err)
	}
	if err := os.Rename(tmp, j.path); err != nil {
		return fmt.Errorf("replacing results file: %w", err)
	}
	return nil
}

// Close is a no-op; the file is opened per operation
func (j *JSONLines) Close() error {
	return nil
}

func (j *JSONLines) readAll() ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)

	f, err := os.Open(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return receipts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening results file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r Receipt
		if err := json.Unmarshal(line, &r); err != nil {
			slog.Warn("Skipping malformed results line", "path", j.path, "line", lineNo, "error", err)
			continue
		}
		receipts = append(receipts, &r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	return receipts, nil
}
