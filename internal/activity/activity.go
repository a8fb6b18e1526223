// Package activity keeps an append-only CSV trail of accounting state changes.
package activity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Actions recorded by the core services.
const (
	ActionEntryCreated    = "journal.create"
	ActionEntryPosted     = "journal.post"
	ActionEntryDeleted    = "journal.delete"
	ActionInvoiceCreated  = "invoice.create"
	ActionInvoicePosted   = "invoice.post"
	ActionInvoiceCanceled = "invoice.cancel"
	ActionPaymentRecorded = "invoice.payment"
	ActionBudgetCreated   = "budget.create"
	ActionBudgetUpdated   = "budget.update"
	ActionBudgetConfirmed = "budget.confirm"
	ActionBudgetRevised   = "budget.revise"
	ActionBudgetArchived  = "budget.archive"
	ActionRuleCreated     = "rule.create"
)

// Entry is one row in the activity log.
type Entry struct {
	Timestamp time.Time
	Actor     string
	Action    string
	Subject   string // id of the record acted on
	Details   string
}

// Recorder receives activity entries.
type Recorder interface {
	Record(e Entry) error
}

// Nop discards every entry.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Entry) error { return nil }

// Header is the CSV header for activity-log.csv.
const Header = "timestamp,actor,action,subject,details"

// FileName is the log file created inside the log directory.
const FileName = "activity-log.csv"

const (
	numFields    = 5
	colTimestamp = 0
	colActor     = 1
	colAction    = 2
	colSubject   = 3
	colDetails   = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colActor] = e.Actor
	row[colAction] = e.Action
	row[colSubject] = e.Subject
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	return Entry{
		Timestamp: ts,
		Actor:     record[colActor],
		Action:    record[colAction],
		Subject:   record[colSubject],
		Details:   record[colDetails],
	}, nil
}

// Log appends entries to <dir>/activity-log.csv. It is safe for concurrent use.
type Log struct {
	mu    sync.Mutex
	dir   string
	actor string
	now   func() time.Time
}

// NewLog returns a Log writing into dir. Entries without an actor are
// attributed to actor.
func NewLog(dir, actor string) *Log {
	return &Log{dir: dir, actor: actor, now: time.Now}
}

// Record appends a single entry, stamping it if Timestamp is zero.
func (l *Log) Record(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	if e.Actor == "" {
		e.Actor = l.actor
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return Append(l.dir, []Entry{e})
}

// Read returns every recorded entry.
func (l *Log) Read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Read(l.dir)
}

// Append writes entries to <dir>/activity-log.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/activity-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening activity log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading activity log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
