// =============================================================================
// Excursion POS - Ledger Store
// =============================================================================
//
// The ledger is the append-only history of every quote ever generated. A CSV
// file on disk is the source of truth; the Store keeps an in-memory copy for
// the lifetime of a session.
//
// DURABILITY:
//   Every append rewrites the file atomically: the current bytes are copied
//   verbatim to a temporary file, the new row is added, the temp file is
//   synced and renamed over the ledger. A failed append leaves the file
//   exactly as it was. Rows that cannot be read are kept on disk untouched.
//
// RECOVERY:
//   Loading never fails on bad content. Unreadable rows (truncated lines,
//   bad numbers, unknown references, duplicates) are skipped and logged as
//   warnings; every readable row is kept. A missing file is an empty ledger.
//   Rows before the first header line (or in a file without one) are read
//   in Header order. Only a line made of ledger column names is a header.
//
// CONCURRENCY:
//   An advisory lock file (<ledger>.lock) serialises writers across
//   processes. AllocateQuote holds it across reload -> count -> append so two
//   sessions cannot mint the same reference.
//
// =============================================================================

package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/laka-amlay/excursion-pos/internal/reference"
	"github.com/laka-amlay/excursion-pos/internal/types"
	"github.com/laka-amlay/excursion-pos/pkg/utils"
	"github.com/rs/zerolog"
)

// Archiver keeps a copy of the ledger before a reset. It returns the path of
// the copy, or "" if there was nothing to archive.
type Archiver interface {
	ArchiveFile(path string) (string, error)
}

// Options configures a Store.
type Options struct {
	// Path is the ledger CSV file.
	Path string

	// LockTimeout bounds the wait for the ledger lock. Default: 5s.
	LockTimeout time.Duration

	// Archiver, if set, receives the ledger before Reset removes it.
	Archiver Archiver

	// Logger receives corruption warnings and write events.
	Logger zerolog.Logger
}

// Store is the ledger handle. It is safe for use by multiple goroutines.
type Store struct {
	mu sync.Mutex

	path        string
	lock        *fileLock
	lockTimeout time.Duration
	archiver    Archiver
	log         zerolog.Logger

	records []types.LedgerRecord
	index   map[string]int

	// canonical is true when the rows at the end of the file are laid out in
	// Header order. Otherwise the next append starts a fresh header line.
	canonical bool
}

// Open creates a Store and loads the ledger file.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 5 * time.Second
	}

	s := &Store{
		path:        opts.Path,
		lock:        newFileLock(opts.Path + ".lock"),
		lockTimeout: opts.LockTimeout,
		archiver:    opts.Archiver,
		log:         opts.Logger.With().Str("ledger", opts.Path).Logger(),
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// =============================================================================
// READS
// =============================================================================

// Reload resynchronises the in-memory copy with the file. Only I/O failures
// other than a missing file are returned.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked()
}

func (s *Store) reloadLocked() error {
	data, err := utils.ReadFileIfExists(s.path)
	if err != nil {
		// The previous cache stays in place.
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	records, canonical := s.decode(data)
	s.records = records
	s.canonical = canonical || len(bytes.TrimSpace([]byte(strings.TrimPrefix(string(data), bom)))) == 0
	s.index = make(map[string]int, len(records))
	for i, r := range records {
		s.index[r.Reference] = i
	}
	return nil
}

// decode reads every readable record of the ledger text. It also reports
// whether the last header seen is the canonical one.
func (s *Store) decode(data []byte) ([]types.LedgerRecord, bool) {
	var (
		records []types.LedgerRecord
		seen    = make(map[string]int)
		skipped int

		// Rows before any header line are read in Header order.
		hdr       = canonicalHeader()
		headerOK  = true
		canonical = false
	)

	text := strings.TrimPrefix(string(data), bom)
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	warn := func(line int, reason string) {
		skipped++
		err := &types.StorageCorruptionError{Path: s.path, Line: line, Reason: reason}
		s.log.Warn().Err(err).Msg("skipping unreadable ledger row")
	}

	for i, line := range lines {
		lineNo := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields, err := readLine(line)
		if err != nil {
			warn(lineNo, err.Error())
			continue
		}

		// A line that reads as a record is data, whatever its values.
		var rec types.LedgerRecord
		reason := "rows under this header cannot be read"
		if headerOK {
			rec, reason = decodeRecord(hdr, fields)
		}
		if reason != "" {
			if h, ok := parseHeader(fields); ok {
				hdr = h
				headerOK = len(h.missing()) == 0
				canonical = h.canonical()
				if !headerOK {
					s.log.Warn().Err(&types.StorageCorruptionError{
						Path: s.path, Line: lineNo,
						Reason: "header is missing columns " + strings.Join(h.missing(), ", "),
					}).Msg("ledger rows under this header cannot be read")
				}
				continue
			}
		}

		if !headerOK {
			skipped++
			continue
		}
		if reason != "" {
			warn(lineNo, reason)
			continue
		}
		if first, dup := seen[rec.Reference]; dup {
			warn(lineNo, fmt.Sprintf("duplicate reference %s (first at line %d)", rec.Reference, first))
			continue
		}
		seen[rec.Reference] = lineNo
		records = append(records, rec)
	}

	if skipped > 0 && len(records) == 0 {
		s.log.Warn().Int("skipped", skipped).Msg("no readable rows in ledger, starting from an empty history")
	} else if skipped > 0 {
		s.log.Warn().Int("skipped", skipped).Int("kept", len(records)).Msg("ledger loaded with unreadable rows")
	}

	return records, canonical
}

// readLine parses a single CSV line.
func readLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty line")
	}
	return fields, err
}

// LoadAll returns a copy of every readable record, in file order.
func (s *Store) LoadAll() []types.LedgerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.LedgerRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Count returns the number of records LoadAll returns.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Find returns the record with the given reference.
func (s *Store) Find(ref string) (types.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[ref]
	if !ok {
		return types.LedgerRecord{}, &types.NotFoundError{What: "ledger record", Key: ref}
	}
	return s.records[i], nil
}

// Tail returns the last n records, oldest first.
func (s *Store) Tail(n int) []types.LedgerRecord {
	all := s.LoadAll()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Quotes returns the records that carry a quote reference.
func (s *Store) Quotes() []types.LedgerRecord {
	var out []types.LedgerRecord
	for _, r := range s.LoadAll() {
		if strings.HasPrefix(r.Reference, types.Quote.Prefix()) {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// WRITES
// =============================================================================

// Append durably adds a record whose reference is already assigned.
func (s *Store) Append(ctx context.Context, rec types.LedgerRecord) (types.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return types.LedgerRecord{}, err
	}
	defer unlock()

	if err := s.reloadLocked(); err != nil {
		return types.LedgerRecord{}, err
	}
	return s.appendLocked(normalize(rec))
}

// AllocateQuote assigns the next quote reference to rec and appends it, all
// under the ledger lock. Any Reference already set on rec is replaced.
func (s *Store) AllocateQuote(ctx context.Context, rec types.LedgerRecord) (types.LedgerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return types.LedgerRecord{}, err
	}
	defer unlock()

	// Another process may have written since our last read.
	if err := s.reloadLocked(); err != nil {
		return types.LedgerRecord{}, err
	}

	ref, err := reference.Allocate(rec.ClientName, types.Quote, s.nextSequenceLocked()-1)
	if err != nil {
		return types.LedgerRecord{}, err
	}
	rec.Reference = ref.String()

	return s.appendLocked(normalize(rec))
}

// NextSequence returns the sequence the next quote would receive.
func (s *Store) NextSequence() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSequenceLocked()
}

// nextSequenceLocked is count+1, raised past the highest stored sequence so
// a skipped corrupt row can never cause a number to be handed out twice.
func (s *Store) nextSequenceLocked() int {
	highest := len(s.records)
	for _, r := range s.records {
		if ref, err := reference.Parse(r.Reference); err == nil && ref.Sequence > highest {
			highest = ref.Sequence
		}
	}
	if highest > len(s.records) {
		s.log.Warn().Int("count", len(s.records)).Int("highest", highest).
			Msg("ledger count is behind the highest reference, continuing after it")
	}
	return highest + 1
}

func (s *Store) appendLocked(rec types.LedgerRecord) (types.LedgerRecord, error) {
	if err := validateRecord(rec); err != nil {
		return types.LedgerRecord{}, err
	}
	if _, dup := s.index[rec.Reference]; dup {
		return types.LedgerRecord{}, &types.InvalidReferenceError{Reference: rec.Reference, Reason: "already in the ledger"}
	}

	existing, err := utils.ReadFileIfExists(s.path)
	if err != nil {
		return types.LedgerRecord{}, fmt.Errorf("failed to read ledger: %w", err)
	}

	var buf bytes.Buffer
	var rows [][]string
	if len(bytes.TrimSpace(bytes.TrimPrefix(existing, []byte(bom)))) == 0 {
		buf.WriteString(bom)
		rows = append(rows, Header)
	} else {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			// Leave a truncated last line on its own line.
			buf.WriteByte('\n')
		}
		if !s.canonical {
			rows = append(rows, Header)
		}
	}
	rows = append(rows, encodeRecord(rec))

	lines, err := encodeLines(rows...)
	if err != nil {
		return types.LedgerRecord{}, err
	}
	buf.Write(lines)

	if err := utils.WriteFileAtomic(s.path, buf.Bytes(), 0644); err != nil {
		return types.LedgerRecord{}, fmt.Errorf("failed to append to ledger: %w", err)
	}

	s.index[rec.Reference] = len(s.records)
	s.records = append(s.records, rec)
	s.canonical = true

	s.log.Debug().Str("ref", rec.Reference).Int("count", len(s.records)).Msg("ledger row appended")
	return rec, nil
}

// Reset discards the whole ledger. When an Archiver is configured the file is
// copied aside first; if archiving fails nothing is removed. Afterwards Count
// is 0 and the next quote restarts at sequence 1.
func (s *Store) Reset(ctx context.Context) (archivedTo string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer unlock()

	if s.archiver != nil {
		archivedTo, err = s.archiver.ArchiveFile(s.path)
		if err != nil {
			return "", fmt.Errorf("failed to archive ledger before reset: %w", err)
		}
	}

	if err := removeIfExists(s.path); err != nil {
		return archivedTo, fmt.Errorf("failed to remove ledger: %w", err)
	}

	s.records = nil
	s.index = make(map[string]int)
	s.canonical = true

	s.log.Info().Str("archive", archivedTo).Msg("ledger reset")
	return archivedTo, nil
}

// acquire takes the cross-process lock within the configured timeout.
func (s *Store) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	return s.lock.acquire(ctx)
}

// normalize puts a record in the exact shape it will have after a reload:
// line breaks in text become spaces, the reference is trimmed, the date
// loses its time of day and the total is rounded to cents.
func normalize(r types.LedgerRecord) types.LedgerRecord {
	y, m, d := r.Date.Date()
	if !r.Date.IsZero() {
		r.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	r.Reference = strings.TrimSpace(flatten(r.Reference))
	r.ClientName = flatten(r.ClientName)
	r.Contact = flatten(r.Contact)
	r.CircuitDescription = flatten(r.CircuitDescription)
	r.TotalAmount = r.TotalAmount.Round(2)
	r.PackageLabel = flatten(r.PackageLabel)
	r.OptionsSummary = flatten(r.OptionsSummary)
	return r
}
