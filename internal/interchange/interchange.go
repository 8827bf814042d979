// Package interchange moves the whole journal across storage backends
// and process generations as JSON. The format carries every fact field
// including the integrity block, so an imported journal still audits
// clean against the original key.
package interchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"waymark/internal/visits/models"
	"waymark/internal/visits/store"
	domainerrors "waymark/pkg/domain-errors"
	"waymark/pkg/platform/sentinel"
	platformstrings "waymark/pkg/platform/strings"
)

// Export serializes every aggregate in the store.
func Export(ctx context.Context, visitStore store.VisitStore) ([]byte, error) {
	var buf bytes.Buffer
	if err := ExportTo(ctx, visitStore, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportTo streams the journal to w as an indented JSON array.
func ExportTo(ctx context.Context, visitStore store.VisitStore, w io.Writer) error {
	aggregates, err := visitStore.Fetch(ctx, store.Filter{})
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeStorage, "export journal")
	}
	if aggregates == nil {
		aggregates = []models.VisitAggregate{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(aggregates); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "encode journal")
	}
	return nil
}

// Import recreates the exported aggregates in the store and returns how
// many were created. An id already present aborts the import with
// CodeConflict; earlier creations from the same run remain.
func Import(ctx context.Context, visitStore store.VisitStore, data []byte) (int, error) {
	var aggregates []models.VisitAggregate
	if err := json.Unmarshal(data, &aggregates); err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInvalidInput, "decode journal")
	}

	created := 0
	for _, aggregate := range aggregates {
		if aggregate.ID.IsNil() {
			return created, domainerrors.New(domainerrors.CodeInvalidInput,
				"exported aggregate is missing its id")
		}
		// Exported files may have been hand-edited or merged; photo keys
		// behave as a set, so duplicates and blanks are dropped here.
		aggregate.Details.PhotoPaths = platformstrings.DedupeAndTrim(aggregate.Details.PhotoPaths)
		if err := visitStore.Create(ctx, aggregate); err != nil {
			if errors.Is(err, sentinel.ErrDuplicateID) {
				return created, domainerrors.Wrap(err, domainerrors.CodeConflict,
					fmt.Sprintf("visit %s already exists", aggregate.ID))
			}
			return created, domainerrors.Wrap(err, domainerrors.CodeStorage, "import visit")
		}
		created++
	}
	return created, nil
}
