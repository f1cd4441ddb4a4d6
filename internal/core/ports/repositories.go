package ports

import (
	"context"
	"errors"

	"github.com/ospreysec/iocharvest/internal/core/domain"
)

// ErrDatasetLocked signals that the master sheet is held open for writing by
// another process (typically Excel). Extraction results are lost for the
// run; the operator retries after closing it.
var ErrDatasetLocked = errors.New("master dataset is locked")

// DatasetStore persists the master dataset. Load returns (nil, nil) when no
// dataset exists yet (the Fresh state).
type DatasetStore interface {
	Load(ctx context.Context) (*domain.Dataset, error)
	Save(ctx context.Context, ds *domain.Dataset) error
}

// IOCArchive records every extracted value individually, independent of the
// master sheet. Optional collaborator; a run works without one.
type IOCArchive interface {
	SaveBatch(ctx context.Context, iocs []domain.ExtractedIOC) error
}
