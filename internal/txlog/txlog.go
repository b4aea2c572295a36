// Package txlog is the append-only local list of sent transactions.
package txlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/AlexZinkM/consent-wallet/internal/model"
)

// Log appends transaction records to a JSONL file
type Log struct {
	path string
	mu   sync.Mutex
}

// New returns a Log writing to path
func New(path string) *Log {
	return &Log{path: path}
}

// Append saves a record to the local log
func (l *Log) Append(rec model.TransactionRecord) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open transaction log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// All returns every record in append order. Unparseable lines are skipped.
func (l *Log) All() ([]model.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.TransactionRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open transaction log: %w", err)
	}
	defer f.Close()

	records := make([]model.TransactionRecord, 0, 16)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.TransactionRecord
		if err := json.Unmarshal(line, &rec); err == nil {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction log: %w", err)
	}
	return records, nil
}
