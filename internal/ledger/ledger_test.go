package ledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"waas-apply/internal/domain"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "applications.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func rec(id string, status domain.Status, msg, notes string) domain.ApplicationRecord {
	return domain.ApplicationRecord{
		PostingID:   id,
		CompanyName: "Acme",
		JobTitle:    "Backend Engineer",
		URL:         "https://www.workatastartup.com/jobs/" + id,
		MessageSent: msg,
		Status:      status,
		Timestamp:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Notes:       notes,
	}
}

func TestAppendAndLoadAllPreservesOrder(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	ids := []string{"j1", "j2", "j3"}
	for _, id := range ids {
		if err := l.Append(ctx, rec(id, domain.StatusSkipped, "", "operator_skip")); err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
	}

	got, err := l.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != len(ids) {
		t.Fatalf("LoadAll returned %d records, want %d", len(got), len(ids))
	}
	for i, id := range ids {
		if got[i].PostingID != id {
			t.Errorf("record %d: posting %q, want %q", i, got[i].PostingID, id)
		}
	}
	if got[0].CompanyName != "Acme" || got[0].Status != domain.StatusSkipped {
		t.Errorf("fields not round-tripped: %+v", got[0])
	}
	if !got[0].Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp not round-tripped: %v", got[0].Timestamp)
	}
}

func TestAppendRejectsEmptyPostingID(t *testing.T) {
	l := openTestLedger(t)
	if err := l.Append(context.Background(), domain.ApplicationRecord{Status: domain.StatusSent}); err == nil {
		t.Fatal("Append with empty posting id should fail")
	}
}

func TestHasSent(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	// Non-sent records never count as sent.
	if err := l.Append(ctx, rec("j1", domain.StatusFailed, "", "navigate_failed")); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, rec("j1", domain.StatusDryRun, "hello", "")); err != nil {
		t.Fatal(err)
	}
	sent, err := l.HasSent(ctx, "j1")
	if err != nil {
		t.Fatalf("HasSent: %v", err)
	}
	if sent {
		t.Error("failed and dry_run records should not count as sent")
	}

	if err := l.Append(ctx, rec("j1", domain.StatusSent, "hello", "")); err != nil {
		t.Fatal(err)
	}
	sent, err = l.HasSent(ctx, "j1")
	if err != nil {
		t.Fatalf("HasSent: %v", err)
	}
	if !sent {
		t.Error("sent record not visible through HasSent")
	}

	sent, err = l.HasSent(ctx, "other")
	if err != nil || sent {
		t.Errorf("HasSent(other) = %v, %v; want false, nil", sent, err)
	}
}

func TestSecondSentRecordRejected(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if err := l.Append(ctx, rec("j1", domain.StatusSent, "first", "")); err != nil {
		t.Fatalf("first sent: %v", err)
	}
	// The partial unique index is the backstop behind the dedup pre-check.
	if err := l.Append(ctx, rec("j1", domain.StatusSent, "second", "")); err == nil {
		t.Fatal("second sent record for the same posting should be rejected")
	}
	// Other statuses for the same posting are still fine.
	if err := l.Append(ctx, rec("j1", domain.StatusSkipped, "", "already_applied_on_site")); err != nil {
		t.Errorf("non-sent append after sent: %v", err)
	}
}

func TestInconclusive(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	// j1: pending then sent, outcome landed.
	if err := l.Append(ctx, rec("j1", domain.StatusPending, "msg1", "submission_started")); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, rec("j1", domain.StatusSent, "msg1", "")); err != nil {
		t.Fatal(err)
	}
	// j2: pending is the last word.
	if err := l.Append(ctx, rec("j2", domain.StatusPending, "msg2", "submission_started")); err != nil {
		t.Fatal(err)
	}
	// j3: never pending.
	if err := l.Append(ctx, rec("j3", domain.StatusSkipped, "", "operator_skip")); err != nil {
		t.Fatal(err)
	}

	got, err := l.Inconclusive(ctx)
	if err != nil {
		t.Fatalf("Inconclusive: %v", err)
	}
	if len(got) != 1 || !got["j2"] {
		t.Errorf("Inconclusive = %v, want only j2", got)
	}

	msg, err := l.PendingMessage(ctx, "j2")
	if err != nil {
		t.Fatalf("PendingMessage: %v", err)
	}
	if msg != "msg2" {
		t.Errorf("PendingMessage = %q, want %q", msg, "msg2")
	}
	msg, err = l.PendingMessage(ctx, "j3")
	if err != nil || msg != "" {
		t.Errorf("PendingMessage(j3) = %q, %v; want empty, nil", msg, err)
	}
}

func TestSummary(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	for _, r := range []domain.ApplicationRecord{
		rec("j1", domain.StatusSent, "m", ""),
		rec("j2", domain.StatusSkipped, "", "operator_skip"),
		rec("j3", domain.StatusSkipped, "", "location_not_allowed"),
		rec("j4", domain.StatusFailed, "", "fill_failed"),
		rec("j5", domain.StatusDryRun, "m", ""),
	} {
		if err := l.Append(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	counts, err := l.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := map[domain.Status]int{
		domain.StatusSent:    1,
		domain.StatusSkipped: 2,
		domain.StatusFailed:  1,
		domain.StatusDryRun:  1,
	}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("Summary[%s] = %d, want %d", status, counts[status], n)
		}
	}
}

func TestExportCSV(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	if err := l.Append(ctx, rec("j1", domain.StatusSent, "hi, line\nsecond", "")); err != nil {
		t.Fatal(err)
	}
	if err := l.Append(ctx, rec("j2", domain.StatusSkipped, "", "operator_skip")); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := l.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	wantHeader := "job_id,company_name,job_title,url,message_sent,status,timestamp,notes"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Errorf("header = %q, want %q", got, wantHeader)
	}
	if len(rows) != 3 {
		t.Fatalf("export has %d rows, want 3", len(rows))
	}
	if rows[1][0] != "j1" || rows[1][5] != "sent" {
		t.Errorf("first data row = %v", rows[1])
	}
	if rows[1][4] != "hi, line\nsecond" {
		t.Errorf("message with newline not preserved: %q", rows[1][4])
	}
	if rows[2][0] != "j2" || rows[2][7] != "operator_skip" {
		t.Errorf("second data row = %v", rows[2])
	}
}
