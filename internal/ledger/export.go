package ledger

import (
	"context"
	"encoding/csv"
	"io"
	"time"
)

// Header order is a compatibility contract with older exports; readers must
// tolerate additional trailing fields, so new columns only go on the end.
var csvHeaders = []string{
	"job_id",
	"company_name",
	"job_title",
	"url",
	"message_sent",
	"status",
	"timestamp",
	"notes",
}

// ExportCSV writes the full audit trail in append order.
func (l *Ledger) ExportCSV(ctx context.Context, w io.Writer) error {
	recs, err := l.LoadAll(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return err
	}
	for _, rec := range recs {
		row := []string{
			rec.PostingID,
			rec.CompanyName,
			rec.JobTitle,
			rec.URL,
			rec.MessageSent,
			string(rec.Status),
			rec.Timestamp.Format(time.RFC3339),
			rec.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
