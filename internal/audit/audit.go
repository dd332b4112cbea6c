// Package audit implements the append-only audit trail: every completed
// Executor call, success or failure, produces exactly one entry, appended
// via the storage core's AppendJsonl so the log can never be torn or
// truncated mid-write.
package audit

import (
	"encoding/json"
	"time"

	"github.com/dispatchd/dispatchd/internal/storage"
)

// Entry is one audit record.
type Entry struct {
	Timestamp     string          `json:"ts"`
	Tool          string          `json:"tool"`
	Args          json.RawMessage `json:"args"`
	OK            bool            `json:"ok"`
	DurationMs    int64           `json:"duration_ms"`
	CorrelationID string          `json:"correlation_id"`
	Error         string          `json:"error,omitempty"`
}

// Logger appends Entry records to a single JSONL file. The audit log is the
// process-wide serial choke point: callers are expected to invoke
// Append once per completed execution. No mutex is taken: storage.AppendJsonl
// writes each record with a single write call on a file opened with O_APPEND.
type Logger struct {
	path string
}

// NewLogger constructs a Logger writing to path (typically
// <DataDir>/audit.jsonl).
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Append writes one audit entry. Timestamp is stamped here in RFC3339Nano
// so callers never need to pass a clock reading.
func (l *Logger) Append(toolName string, args json.RawMessage, ok bool, durationMs int64, correlationID string, errMsg string) error {
	entry := Entry{
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Tool:          toolName,
		Args:          args,
		OK:            ok,
		DurationMs:    durationMs,
		CorrelationID: correlationID,
		Error:         errMsg,
	}
	return storage.AppendJsonl(l.path, entry)
}

// isValidEntry is used by ReadAll to filter corrupt lines, matching the
// storage core's corrupt-line quarantine contract.
func isValidEntry(raw json.RawMessage) bool {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false
	}
	return e.Tool != "" && e.Timestamp != ""
}

// ReadAll returns every valid audit entry currently on disk, for forensic
// inspection (e.g. a future `audit_log` dashboard view). Corrupt lines are
// quarantined to <path>.corrupt by the underlying storage read, not
// returned.
func (l *Logger) ReadAll() ([]Entry, error) {
	raws, err := storage.ReadJsonlValid(l.path, isValidEntry)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal(raw, &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
