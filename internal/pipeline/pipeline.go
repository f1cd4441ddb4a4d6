package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ospreysec/iocharvest/internal/core/domain"
	"github.com/ospreysec/iocharvest/internal/core/ports"
)

// Pipeline wires the collaborators of one extraction run. Archive and
// Notify are optional; everything else is required.
type Pipeline struct {
	Source    ports.MessageSource
	Stager    ports.AttachmentStager
	Decoder   ports.TabularDecoder
	Store     ports.DatasetStore
	Archive   ports.IOCArchive
	Notify    ports.Notifier
	Catalog   *domain.Catalog
	Folder    string
	Separator string
}

// Run processes the folder once, strictly sequentially: one message, one
// attachment, one sheet at a time. Per-attachment and per-sheet failures
// are logged and skipped; only an unreachable source and a failed final
// persist abort the run. Nothing is written until all messages are
// processed.
func (p *Pipeline) Run(ctx context.Context, window domain.Window) (ports.RunSummary, error) {
	summary := ports.RunSummary{
		Folder:      p.Folder,
		WindowStart: window.Start.Format(domain.DateLayout),
		WindowEnd:   window.End.Format(domain.DateLayout),
	}

	it, err := p.Source.Open(ctx, p.Folder)
	if err != nil {
		return summary, fmt.Errorf("message source unavailable: %w", err)
	}
	defer it.Close()

	log.Printf("🔍 Scanning %q for messages between %s and %s...", p.Folder, summary.WindowStart, summary.WindowEnd)

	var records []domain.MessageRecord
	var archived []domain.ExtractedIOC

	for {
		msg, err := it.Next(ctx)
		if errors.Is(err, ports.ErrEndOfMailbox) {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			log.Printf("⚠️ skipping unreadable message: %v", err)
			continue
		}

		// Newest-first ordering: the first message older than the window
		// start ends the scan, nothing after it can be in the window.
		if window.StartsAfter(msg.Received) {
			log.Printf("⏩ reached %s, older than window start. Stopping scan.", msg.Received.Format(domain.DateLayout))
			break
		}
		if window.EndsBefore(msg.Received) {
			continue
		}

		summary.MessagesScanned++

		rec, ok := p.processMessage(msg)
		if !ok {
			continue
		}
		records = append(records, rec)
		summary.MessagesWithData++
		archived = append(archived, recordIOCs(rec)...)
	}

	if len(records) == 0 {
		log.Println("📭 No messages with matching spreadsheet data in that date range.")
		p.notify(summary)
		return summary, nil
	}

	existing, err := p.Store.Load(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to read master dataset: %w", err)
	}
	summary.CreatedMaster = existing == nil
	if summary.CreatedMaster {
		log.Println("📄 Creating new master dataset.")
	} else {
		log.Printf("📄 Appending to existing master dataset (%d rows).", len(existing.Rows))
	}

	merged := domain.MergeDataset(existing, records, p.Catalog)
	if err := p.Store.Save(ctx, merged); err != nil {
		if errors.Is(err, ports.ErrDatasetLocked) {
			return summary, fmt.Errorf("master dataset is held open elsewhere, close it and retry the run: %w", err)
		}
		return summary, fmt.Errorf("failed to persist master dataset: %w", err)
	}
	summary.RowsAppended = len(records)

	if p.Archive != nil {
		if err := p.Archive.SaveBatch(ctx, archived); err != nil {
			// The master sheet is already written; the archive is best-effort.
			log.Printf("⚠️ failed to archive %d extracted IOCs: %v", len(archived), err)
		} else {
			log.Printf("💾 Archived %d extracted IOCs.", len(archived))
		}
	}

	p.notify(summary)
	return summary, nil
}

// processMessage stages and decodes every qualifying attachment of one
// message and aggregates the matched values into a single record.
func (p *Pipeline) processMessage(msg *ports.Message) (domain.MessageRecord, bool) {
	builder := domain.NewRecordBuilder(msg.Subject, msg.Received, p.Catalog)
	sawSpreadsheet := false

	for _, att := range msg.Attachments {
		if !att.IsSpreadsheet() {
			continue
		}
		sawSpreadsheet = true

		path, err := p.Stager.Stage(att.Filename, att.Content)
		if err != nil {
			log.Printf("⚠️ failed to stage attachment %q in %q: %v", att.Filename, msg.Subject, err)
			continue
		}

		sheets, err := p.Decoder.Decode(path)
		if err != nil {
			log.Printf("⚠️ failed to decode attachment %q in %q: %v", att.Filename, msg.Subject, err)
			continue
		}

		for _, sheet := range sheets {
			located, ok := domain.LocateHeader(sheet.Table, p.Catalog)
			if !ok {
				continue
			}
			classified := domain.ClassifyColumns(located.Columns, p.Catalog)
			builder.Collect(located, classified)
		}
	}

	if !sawSpreadsheet {
		return domain.MessageRecord{}, false
	}

	rec, ok := builder.Finalize(p.Separator)
	if !ok {
		log.Printf("➖ No matching headers in: %s", msg.Subject)
		return domain.MessageRecord{}, false
	}
	log.Printf("✅ Found data in: %s", msg.Subject)
	return rec, true
}

func recordIOCs(rec domain.MessageRecord) []domain.ExtractedIOC {
	now := time.Now()
	var out []domain.ExtractedIOC
	for cat, vals := range rec.Distinct {
		for _, v := range vals {
			out = append(out, domain.ExtractedIOC{
				Value:        v,
				Category:     cat,
				Subject:      rec.Subject,
				MessageDate:  rec.Date,
				DateIngested: now,
			})
		}
	}
	return out
}

func (p *Pipeline) notify(summary ports.RunSummary) {
	if p.Notify == nil {
		return
	}
	if err := p.Notify.NotifyRunSummary(summary); err != nil {
		log.Printf("⚠️ failed to send run summary notification: %v", err)
	}
}
