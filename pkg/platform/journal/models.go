package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names a change applied to the journal owner's data. Actions are
// stable identifiers; renaming one breaks historical queries.
type Action string

const (
	// Visit lifecycle.
	ActionVisitRecorded  Action = "visit_recorded"
	ActionVisitAmended   Action = "visit_amended"
	ActionVisitForgotten Action = "visit_forgotten"
	ActionVisitsReset    Action = "visits_reset"
	ActionPhotoAttached  Action = "photo_attached"
	ActionPhotoDetached  Action = "photo_detached"

	// Taxonomy lifecycle. One constant per kind so the journal reads
	// without joining against the taxonomy tables.
	ActionLabelCreated  Action = "label_created"
	ActionLabelRenamed  Action = "label_renamed"
	ActionLabelDeleted  Action = "label_deleted"
	ActionGroupCreated  Action = "group_created"
	ActionGroupRenamed  Action = "group_renamed"
	ActionGroupDeleted  Action = "group_deleted"
	ActionMemberCreated Action = "member_created"
	ActionMemberRenamed Action = "member_renamed"
	ActionMemberDeleted Action = "member_deleted"

	// Interchange.
	ActionJournalExported Action = "journal_exported"
	ActionJournalImported Action = "journal_imported"
)

// Event records one change. SubjectID points at the visit or taxonomy
// entry the action touched; it is nil for whole-journal actions like a
// reset or an export.
type Event struct {
	ID         uuid.UUID
	Action     Action
	OccurredAt time.Time
	SubjectID  *uuid.UUID
	Detail     string
}

// Store persists journal events. Implementations must be safe for
// concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}
