package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ospreysec/iocharvest/internal/core/domain"
	"github.com/ospreysec/iocharvest/internal/core/ports"
)

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeSource struct {
	msgs    []*ports.Message
	openErr error
	fetched int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Open(ctx context.Context, folder string) (ports.MessageIterator, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &fakeIterator{src: s}, nil
}

type fakeIterator struct {
	src *fakeSource
	pos int
}

func (it *fakeIterator) Next(ctx context.Context) (*ports.Message, error) {
	if it.pos >= len(it.src.msgs) {
		return nil, ports.ErrEndOfMailbox
	}
	msg := it.src.msgs[it.pos]
	it.pos++
	it.src.fetched++
	return msg, nil
}

func (it *fakeIterator) Close() error { return nil }

type fakeStager struct{ staged []string }

func (s *fakeStager) Stage(filename string, content []byte) (string, error) {
	s.staged = append(s.staged, filename)
	return filename, nil
}

func (s *fakeStager) Close() error { return nil }

type fakeDecoder struct {
	sheets map[string][]ports.Sheet
	errs   map[string]error
}

func (d *fakeDecoder) Decode(path string) ([]ports.Sheet, error) {
	if err := d.errs[path]; err != nil {
		return nil, err
	}
	return d.sheets[path], nil
}

type fakeStore struct {
	existing *domain.Dataset
	saved    *domain.Dataset
	saveErr  error
}

func (s *fakeStore) Load(ctx context.Context) (*domain.Dataset, error) { return s.existing, nil }

func (s *fakeStore) Save(ctx context.Context, ds *domain.Dataset) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = ds
	return nil
}

type fakeArchive struct{ got []domain.ExtractedIOC }

func (a *fakeArchive) SaveBatch(ctx context.Context, iocs []domain.ExtractedIOC) error {
	a.got = append(a.got, iocs...)
	return nil
}

// ---------------------------------------------------------------------------

func testWindow(t *testing.T) domain.Window {
	t.Helper()
	w, err := domain.NewWindow("2026-01-10", "2026-01-20")
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func newPipeline(src *fakeSource, dec *fakeDecoder, store *fakeStore) *Pipeline {
	return &Pipeline{
		Source:    src,
		Stager:    &fakeStager{},
		Decoder:   dec,
		Store:     store,
		Catalog:   domain.DefaultCatalog(),
		Folder:    "Invoices",
		Separator: domain.SeparatorInline,
	}
}

func received(day int) time.Time {
	return time.Date(2026, 1, day, 9, 30, 0, 0, time.UTC)
}

func TestRun_BuriedHeaderSingleMessage(t *testing.T) {
	sheet := ports.Sheet{
		Name: "iocs",
		Table: domain.Table{
			Columns: []string{"Threat Report", ""},
			Rows: [][]string{
				{"internal distribution", ""},
				{"week 2", ""},
				{"", ""},
				{"MD-5", "first seen"},
				{"feedface", "2026-01-11"},
				{"cafebabe", "2026-01-11"},
				{"cafebabe", "2026-01-12"},
			},
		},
	}
	src := &fakeSource{msgs: []*ports.Message{{
		Subject:  "IOC drop",
		Received: received(15),
		Attachments: []ports.Attachment{
			{Filename: "drop.xlsx", Content: []byte("x")},
			{Filename: "notes.txt", Content: []byte("ignored")},
		},
	}}}
	dec := &fakeDecoder{sheets: map[string][]ports.Sheet{"drop.xlsx": {sheet}}}
	store := &fakeStore{}
	arch := &fakeArchive{}

	p := newPipeline(src, dec, store)
	p.Archive = arch

	summary, err := p.Run(context.Background(), testWindow(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.RowsAppended != 1 || !summary.CreatedMaster {
		t.Errorf("summary = %+v, want one appended row in a fresh master", summary)
	}
	if store.saved == nil || len(store.saved.Rows) != 1 {
		t.Fatalf("saved dataset = %+v, want exactly one row", store.saved)
	}
	row := store.saved.Rows[0]
	if row[0] != "IOC drop" || row[1] != "2026-01-15" {
		t.Errorf("row prefix = %v", row[:2])
	}
	// md5 is the first category column: both hashes, sorted, deduplicated.
	if row[2] != "cafebabe, feedface" {
		t.Errorf("md5 blob = %q, want %q", row[2], "cafebabe, feedface")
	}
	if len(arch.got) != 2 {
		t.Errorf("archived %d IOCs, want 2", len(arch.got))
	}
}

func TestRun_EarlyExitOnPreWindowMessage(t *testing.T) {
	src := &fakeSource{msgs: []*ports.Message{
		{Subject: "in window", Received: received(15)},
		{Subject: "before window", Received: received(5)},
		// Must never be fetched: the scan stops at the message above.
		{Subject: "ancient", Received: received(1)},
	}}
	store := &fakeStore{}

	p := newPipeline(src, &fakeDecoder{}, store)
	if _, err := p.Run(context.Background(), testWindow(t)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if src.fetched != 2 {
		t.Errorf("fetched %d messages, want 2 (stop at the first pre-window message)", src.fetched)
	}
}

func TestRun_CorruptAttachmentDoesNotSinkMessage(t *testing.T) {
	valid := ports.Sheet{Table: domain.Table{
		Columns: []string{"sha256"},
		Rows:    [][]string{{"deadbeef"}},
	}}
	src := &fakeSource{msgs: []*ports.Message{{
		Subject:  "mixed bag",
		Received: received(12),
		Attachments: []ports.Attachment{
			{Filename: "corrupt.xls", Content: []byte("broken")},
			{Filename: "good.xlsx", Content: []byte("fine")},
		},
	}}}
	dec := &fakeDecoder{
		sheets: map[string][]ports.Sheet{"good.xlsx": {valid}},
		errs:   map[string]error{"corrupt.xls": errors.New("not a workbook")},
	}
	store := &fakeStore{}

	p := newPipeline(src, dec, store)
	summary, err := p.Run(context.Background(), testWindow(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.MessagesWithData != 1 {
		t.Fatalf("messages with data = %d, want 1", summary.MessagesWithData)
	}
	// sha256 sits after Subject, Date, md5, sha1.
	if got := store.saved.Rows[0][4]; got != "deadbeef" {
		t.Errorf("sha256 blob = %q, want value from the valid attachment", got)
	}
}

func TestRun_AppendsAfterExistingRows(t *testing.T) {
	src := &fakeSource{msgs: []*ports.Message{{
		Subject:     "new",
		Received:    received(11),
		Attachments: []ports.Attachment{{Filename: "a.xlsx"}},
	}}}
	dec := &fakeDecoder{sheets: map[string][]ports.Sheet{"a.xlsx": {{Table: domain.Table{
		Columns: []string{"ip address"},
		Rows:    [][]string{{"10.9.8.7"}},
	}}}}}
	store := &fakeStore{existing: &domain.Dataset{
		Columns: []string{"Subject", "Date", "md5", "sha1", "sha256", "ip", "domain"},
		Rows:    [][]string{{"old", "2025-11-01", "", "", "", "1.2.3.4", ""}},
	}}

	p := newPipeline(src, dec, store)
	summary, err := p.Run(context.Background(), testWindow(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.CreatedMaster {
		t.Error("existing master must not be reported as created")
	}
	if len(store.saved.Rows) != 2 || store.saved.Rows[0][0] != "old" || store.saved.Rows[1][0] != "new" {
		t.Errorf("rows = %v, want persisted row first, new row appended", store.saved.Rows)
	}
}

func TestRun_NoDataSkipsPersist(t *testing.T) {
	src := &fakeSource{msgs: []*ports.Message{{
		Subject:     "no spreadsheets",
		Received:    received(12),
		Attachments: []ports.Attachment{{Filename: "photo.png"}},
	}}}
	store := &fakeStore{}

	p := newPipeline(src, &fakeDecoder{}, store)
	summary, err := p.Run(context.Background(), testWindow(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.RowsAppended != 0 || store.saved != nil {
		t.Error("a run with no matched data must not touch the master dataset")
	}
}

func TestRun_LockedMasterFailsPersistStep(t *testing.T) {
	src := &fakeSource{msgs: []*ports.Message{{
		Subject:     "data",
		Received:    received(12),
		Attachments: []ports.Attachment{{Filename: "a.xlsx"}},
	}}}
	dec := &fakeDecoder{sheets: map[string][]ports.Sheet{"a.xlsx": {{Table: domain.Table{
		Columns: []string{"md5"},
		Rows:    [][]string{{"abc"}},
	}}}}}
	store := &fakeStore{saveErr: ports.ErrDatasetLocked}

	p := newPipeline(src, dec, store)
	_, err := p.Run(context.Background(), testWindow(t))
	if !errors.Is(err, ports.ErrDatasetLocked) {
		t.Errorf("Run() error = %v, want ErrDatasetLocked", err)
	}
}

func TestRun_SourceUnavailableIsFatal(t *testing.T) {
	src := &fakeSource{openErr: errors.New("folder missing")}
	p := newPipeline(src, &fakeDecoder{}, &fakeStore{})

	if _, err := p.Run(context.Background(), testWindow(t)); err == nil {
		t.Error("an unreachable source must abort the run")
	}
}
