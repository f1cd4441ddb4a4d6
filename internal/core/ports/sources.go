package ports

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrEndOfMailbox is returned by MessageIterator.Next when the folder is
// exhausted.
var ErrEndOfMailbox = errors.New("end of mailbox")

// Message is one mailbox message with its attachments already materialized.
type Message struct {
	Subject     string
	Received    time.Time
	Attachments []Attachment
}

// Attachment carries an attachment's file name and raw bytes.
type Attachment struct {
	Filename string
	Content  []byte
}

// IsSpreadsheet reports whether the attachment's file name carries a
// spreadsheet extension. Only such attachments are considered for
// extraction.
func (a Attachment) IsSpreadsheet() bool {
	name := strings.ToLower(a.Filename)
	return strings.HasSuffix(name, ".xlsx") || strings.HasSuffix(name, ".xls")
}

// MessageSource opens a named folder and yields its messages newest-first.
// Ordering is assumed monotonic: once a message older than the window start
// appears, no later message in the iteration is newer.
type MessageSource interface {
	Name() string
	Open(ctx context.Context, folder string) (MessageIterator, error)
}

// MessageIterator yields one message at a time so the scan can stop early
// without fetching older messages at all.
type MessageIterator interface {
	Next(ctx context.Context) (*Message, error)
	Close() error
}
