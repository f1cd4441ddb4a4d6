package mailbox

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"

	"github.com/ospreysec/iocharvest/internal/core/ports"
)

// IMAPSource yields messages from one IMAP folder, newest-first. Messages
// are fetched one at a time so a scan that stops early never downloads the
// older part of the folder.
type IMAPSource struct {
	addr     string // host:port, implicit TLS
	username string
	password string
}

func NewIMAPSource(addr, username, password string) *IMAPSource {
	return &IMAPSource{
		addr:     addr,
		username: username,
		password: password,
	}
}

func (s *IMAPSource) Name() string {
	return "imap:" + s.addr
}

func (s *IMAPSource) Open(ctx context.Context, folder string) (ports.MessageIterator, error) {
	c, err := client.DialTLS(s.addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", s.addr, err)
	}

	if err := c.Login(s.username, s.password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("login failed for %s: %w", s.username, err)
	}

	if _, err := c.Select(folder, true); err != nil {
		c.Logout()
		return nil, fmt.Errorf("folder %q not found: %w", folder, err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.DeletedFlag}
	seqNums, err := c.Search(criteria)
	if err != nil {
		c.Logout()
		return nil, fmt.Errorf("search in %q failed: %w", folder, err)
	}

	// Sequence numbers follow arrival order; highest first gives the
	// newest-first iteration the pipeline's early exit relies on.
	sort.Sort(sort.Reverse(uint32Slice(seqNums)))

	return &imapIterator{client: c, seqNums: seqNums}, nil
}

type imapIterator struct {
	client  *client.Client
	seqNums []uint32
	pos     int
}

func (it *imapIterator) Next(ctx context.Context) (*ports.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if it.pos >= len(it.seqNums) {
		return nil, ports.ErrEndOfMailbox
	}
	seq := it.seqNums[it.pos]
	it.pos++

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seq)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- it.client.Fetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %d: %w", seq, err)
	}
	if msg == nil || msg.Envelope == nil {
		return nil, fmt.Errorf("message %d returned no envelope", seq)
	}

	out := &ports.Message{
		Subject:  msg.Envelope.Subject,
		Received: msg.Envelope.Date,
	}

	r := msg.GetBody(section)
	if r == nil {
		return out, nil
	}
	out.Attachments = readAttachments(r, out.Subject)

	return out, nil
}

// readAttachments walks the MIME parts and materializes every attachment.
// A part that cannot be read is skipped; the rest of the message still
// processes.
func readAttachments(r io.Reader, subject string) []ports.Attachment {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		log.Printf("⚠️ unreadable message body in %q: %v", subject, err)
		return nil
	}

	var atts []ports.Attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("⚠️ skipping broken part in %q: %v", subject, err)
			break
		}

		h, ok := part.Header.(*gomail.AttachmentHeader)
		if !ok {
			continue
		}
		filename, err := h.Filename()
		if err != nil || filename == "" {
			continue
		}
		content, err := io.ReadAll(part.Body)
		if err != nil {
			log.Printf("⚠️ failed to read attachment %q in %q: %v", filename, subject, err)
			continue
		}
		atts = append(atts, ports.Attachment{Filename: filename, Content: content})
	}
	return atts
}

func (it *imapIterator) Close() error {
	return it.client.Logout()
}

type uint32Slice []uint32

func (s uint32Slice) Len() int           { return len(s) }
func (s uint32Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s uint32Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
