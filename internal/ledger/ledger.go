package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"waas-apply/internal/domain"

	_ "modernc.org/sqlite"
)

// Ledger is the durable, append-only record of every application attempt and
// the system's source of truth for dedup. Single writer: only the
// orchestrator appends, within one process. Concurrent processes are not a
// supported configuration (the caller holds a file lock on the data dir).
type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	// WAL plus synchronous(FULL) so a reported append survives a crash
	// immediately after Append returns.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // sqlite wants one writer
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS applications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  posting_id TEXT NOT NULL,
  company_name TEXT NOT NULL DEFAULT '',
  job_title TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  message_sent TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  timestamp TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_applications_posting ON applications(posting_id);
CREATE UNIQUE INDEX IF NOT EXISTS uniq_sent_per_posting
  ON applications(posting_id) WHERE status = 'sent';
`)
	return err
}

// Append writes one record and does not return until sqlite has committed it.
// Rows are never updated or deleted; a correction is a new record.
func (l *Ledger) Append(ctx context.Context, rec domain.ApplicationRecord) error {
	if rec.PostingID == "" {
		return fmt.Errorf("append: empty posting id")
	}
	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx, `
INSERT INTO applications (posting_id, company_name, job_title, url, message_sent, status, timestamp, notes)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		rec.PostingID, rec.CompanyName, rec.JobTitle, rec.URL,
		rec.MessageSent, string(rec.Status), ts.Format(time.RFC3339), rec.Notes,
	)
	if err != nil {
		return fmt.Errorf("append record for %s: %w", rec.PostingID, err)
	}
	return nil
}

// HasSent reports whether a sent record exists for the posting, from any run.
func (l *Ledger) HasSent(ctx context.Context, postingID string) (bool, error) {
	var one int
	err := l.db.QueryRowContext(ctx, `
SELECT 1 FROM applications WHERE posting_id = ? AND status = 'sent' LIMIT 1;`,
		postingID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has_sent %s: %w", postingID, err)
	}
	return true, nil
}

// LoadAll returns every record in append order.
func (l *Ledger) LoadAll(ctx context.Context) ([]domain.ApplicationRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT posting_id, company_name, job_title, url, message_sent, status, timestamp, notes
FROM applications
ORDER BY id ASC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ApplicationRecord
	for rows.Next() {
		var rec domain.ApplicationRecord
		var status, ts string
		if err := rows.Scan(&rec.PostingID, &rec.CompanyName, &rec.JobTitle, &rec.URL,
			&rec.MessageSent, &status, &ts, &rec.Notes); err != nil {
			return nil, err
		}
		rec.Status = domain.Status(status)
		rec.Timestamp, _ = time.Parse(time.RFC3339, ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Inconclusive returns posting ids whose latest record is pending: a
// submission was started but its outcome never landed. Those postings must be
// re-verified against the live site before any new submission.
func (l *Ledger) Inconclusive(ctx context.Context) (map[string]bool, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT a.posting_id FROM applications a
JOIN (SELECT posting_id, MAX(id) AS max_id FROM applications GROUP BY posting_id) last
  ON a.posting_id = last.posting_id AND a.id = last.max_id
WHERE a.status = 'pending';`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// PendingMessage returns the message text captured in the latest pending
// record for a posting, so a recovered submission can be recorded verbatim.
func (l *Ledger) PendingMessage(ctx context.Context, postingID string) (string, error) {
	var msg string
	err := l.db.QueryRowContext(ctx, `
SELECT message_sent FROM applications
WHERE posting_id = ? AND status = 'pending'
ORDER BY id DESC LIMIT 1;`, postingID).Scan(&msg)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return msg, err
}

// Summary returns record counts by status across all runs.
func (l *Ledger) Summary(ctx context.Context) (map[domain.Status]int, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT status, COUNT(*) FROM applications GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.Status]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.Status(status)] = n
	}
	return out, rows.Err()
}
