package ports

import "github.com/ospreysec/iocharvest/internal/core/domain"

// Sheet is one named table decoded from a staged workbook.
type Sheet struct {
	Name  string
	Table domain.Table
}

// TabularDecoder turns a staged attachment file into zero or more sheets.
// A workbook that cannot be parsed at all yields an error; individual
// unreadable sheets are simply omitted.
type TabularDecoder interface {
	Decode(path string) ([]Sheet, error)
}

// AttachmentStager writes attachment bytes to scoped temporary storage under
// a collision-free name and releases everything at run end. Implementations
// retry briefly on write contention (antivirus scanners holding fresh files)
// before giving up on a single attachment.
type AttachmentStager interface {
	Stage(filename string, content []byte) (string, error)
	Close() error
}
