package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxEntries caps the in-memory log; older entries are dropped.
const MaxEntries = 100

type Action string

const (
	ActionCreate  Action = "create"
	ActionDelete  Action = "delete"
	ActionList    Action = "list"
	ActionExport  Action = "export"
	ActionExtract Action = "extract"
	ActionSync    Action = "sync"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry records one portal action. Secret values are never stored.
type Entry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	Actor     string    `json:"actor,omitempty"`
	Secret    string    `json:"secret,omitempty"`
	Repo      string    `json:"repo,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
}

// Log keeps the most recent entries newest first and optionally appends
// each one to a JSONL file.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	path    string
}

// New returns a log persisted at path; an empty path keeps it in memory.
func New(path string) *Log {
	return &Log{path: path}
}

// Open loads existing history from path and continues appending to it.
func Open(path string) (*Log, error) {
	l := New(path)
	if path == "" {
		return l, nil
	}
	hist, err := LoadHistory(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if len(hist) > MaxEntries {
		hist = hist[:MaxEntries]
	}
	l.entries = hist
	return l, nil
}

// Path is where entries are persisted, or "" for memory only.
func (l *Log) Path() string { return l.path }

// Add records e, filling ID and Timestamp when unset, and returns the stored
// entry. Persistence failures are logged, not returned.
func (l *Log) Add(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = StatusSuccess
	}

	l.mu.Lock()
	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > MaxEntries {
		l.entries = l.entries[:MaxEntries]
	}
	path := l.path
	l.mu.Unlock()

	if path != "" {
		if err := appendEntry(path, e); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Could not persist audit entry")
		}
	}
	return e
}

// Record is a shorthand for Add with the outcome derived from err.
func (l *Log) Record(action Action, repo, secret string, err error, message string) Entry {
	e := Entry{Action: action, Repo: repo, Secret: secret, Message: message, Status: StatusSuccess}
	if err != nil {
		e.Status = StatusFailed
		if message == "" {
			e.Message = err.Error()
		} else {
			e.Message = message + ": " + err.Error()
		}
	}
	return l.Add(e)
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func appendEntry(path string, e Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	// Owner-only: entries name secrets and repositories.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(e); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// LoadHistory reads a JSONL audit file and returns its entries newest
// first. Malformed lines are skipped.
func LoadHistory(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var records []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		records = append(records, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// DefaultPath is the audit file under the user's config directory.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "secrets-portal", "audit.jsonl")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "secrets-portal", "audit.jsonl")
}
