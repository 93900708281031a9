// Package tracesink mirrors the transaction monitor's live record stream
// into a SQLite file for offline analysis, grounded on tracing.SQLiteTraceWriter's
// batched-write-then-flush shape in the teacher repository, narrowed from a
// generic task/delay/progress/dependency schema to this domain's single
// 5-DWORD transaction record.
package tracesink

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite3" driver with database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"

	"github.com/bsapcie/exerciser/internal/monitor"
)

// DefaultBatchSize bounds how many records accumulate before an automatic
// Flush.
const DefaultBatchSize = 4096

// Sink batches monitor.Record values and flushes them to a SQLite table.
type Sink struct {
	db        *sql.DB
	stmt      *sql.Stmt
	runID     string
	batchSize int
	pending   []monitor.Record
	nextSeq   int64
}

// Open creates (or appends to) the SQLite file at path and prepares the
// trace table. Each Sink instance tags its rows with a fresh run ID so
// multiple runs can share one file without clobbering each other's records.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s := &Sink{db: db, runID: xid.New().String(), batchSize: DefaultBatchSize}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.prepareStatement(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) createTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS txn_record (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			w0 INTEGER NOT NULL,
			w1 INTEGER NOT NULL,
			w2 INTEGER NOT NULL,
			w3 INTEGER NOT NULL,
			w4 INTEGER NOT NULL
		)
	`)
	return err
}

func (s *Sink) prepareStatement() error {
	stmt, err := s.db.Prepare(
		`INSERT INTO txn_record (run_id, seq, w0, w1, w2, w3, w4) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	s.stmt = stmt
	return nil
}

// Record appends one record to the pending batch, flushing automatically
// once batchSize is reached. Intended to be passed directly as a
// monitor.Monitor sink via monitor.Monitor.SetSink:
//
//	sink, _ := tracesink.Open(path)
//	mon.SetSink(sink.Record)
func (s *Sink) Record(r monitor.Record) {
	s.pending = append(s.pending, r)
	if len(s.pending) >= s.batchSize {
		s.Flush()
	}
}

// Flush writes every pending record to SQLite within one transaction.
func (s *Sink) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt := tx.Stmt(s.stmt)
	for _, r := range s.pending {
		if _, err := stmt.Exec(s.runID, s.nextSeq, r[0], r[1], r[2], r[3], r[4]); err != nil {
			tx.Rollback()
			return fmt.Errorf("tracesink: insert record %d: %w", s.nextSeq, err)
		}
		s.nextSeq++
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.pending = s.pending[:0]
	return nil
}

// Close flushes any pending records and closes the underlying database.
func (s *Sink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.stmt.Close(); err != nil {
		return err
	}
	return s.db.Close()
}
