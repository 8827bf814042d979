// Package service holds the taxonomy use cases: creating, renaming,
// deleting, and listing the user-defined labels, groups, and members
// that visit details reference.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"waymark/internal/taxonomy/models"
	"waymark/internal/taxonomy/store"
	domainerrors "waymark/pkg/domain-errors"
	"waymark/pkg/platform/journal"
	"waymark/pkg/platform/sentinel"
)

var createdActions = map[models.Kind]journal.Action{
	models.KindLabel:  journal.ActionLabelCreated,
	models.KindGroup:  journal.ActionGroupCreated,
	models.KindMember: journal.ActionMemberCreated,
}

var renamedActions = map[models.Kind]journal.Action{
	models.KindLabel:  journal.ActionLabelRenamed,
	models.KindGroup:  journal.ActionGroupRenamed,
	models.KindMember: journal.ActionMemberRenamed,
}

var deletedActions = map[models.Kind]journal.Action{
	models.KindLabel:  journal.ActionLabelDeleted,
	models.KindGroup:  journal.ActionGroupDeleted,
	models.KindMember: journal.ActionMemberDeleted,
}

type Service struct {
	store     store.TaxonomyStore
	publisher *journal.Publisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithJournal(publisher *journal.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func New(taxonomyStore store.TaxonomyStore, opts ...Option) *Service {
	s := &Service{store: taxonomyStore, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a tag with a fresh id. The name is trimmed before the
// duplicate check, so " Coffee " and "Coffee" are the same entry.
func (s *Service) Create(ctx context.Context, kind models.Kind, name string) (models.Tag, error) {
	tag, err := models.NewTag(uuid.New(), kind, name)
	if err != nil {
		return models.Tag{}, err
	}

	if err := s.store.Create(ctx, tag); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateName) {
			return models.Tag{}, domainerrors.Newf(domainerrors.CodeConflict,
				"%s named %q already exists", kind, tag.Name)
		}
		return models.Tag{}, domainerrors.Wrap(err, domainerrors.CodeStorage, "create tag")
	}

	s.logger.InfoContext(ctx, "tag created", "kind", kind, "tag_id", tag.ID, "name", tag.Name)
	s.emit(ctx, createdActions[kind], tag.ID, tag.Name)
	return tag, nil
}

// Rename changes a tag's display name in place. Visit details keep
// referencing the tag by id, so they pick the new name up for free.
func (s *Service) Rename(ctx context.Context, kind models.Kind, tagID uuid.UUID, name string) (models.Tag, error) {
	if !kind.Valid() {
		return models.Tag{}, domainerrors.Newf(domainerrors.CodeValidation, "unknown tag kind %q", kind)
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return models.Tag{}, domainerrors.New(domainerrors.CodeValidation, "tag name must not be empty")
	}

	if err := s.store.Rename(ctx, kind, tagID, trimmed); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return models.Tag{}, domainerrors.Newf(domainerrors.CodeNotFound, "%s %s not found", kind, tagID)
		case errors.Is(err, sentinel.ErrDuplicateName):
			return models.Tag{}, domainerrors.Newf(domainerrors.CodeConflict,
				"%s named %q already exists", kind, trimmed)
		default:
			return models.Tag{}, domainerrors.Wrap(err, domainerrors.CodeStorage, "rename tag")
		}
	}

	s.logger.InfoContext(ctx, "tag renamed", "kind", kind, "tag_id", tagID, "name", trimmed)
	s.emit(ctx, renamedActions[kind], tagID, trimmed)
	return models.Tag{ID: tagID, Kind: kind, Name: trimmed}, nil
}

// Delete removes a tag. Visits that reference it keep the dangling id;
// queries simply stop matching anything for it.
func (s *Service) Delete(ctx context.Context, kind models.Kind, tagID uuid.UUID) error {
	if !kind.Valid() {
		return domainerrors.Newf(domainerrors.CodeValidation, "unknown tag kind %q", kind)
	}

	if err := s.store.Delete(ctx, kind, tagID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domainerrors.Newf(domainerrors.CodeNotFound, "%s %s not found", kind, tagID)
		}
		return domainerrors.Wrap(err, domainerrors.CodeStorage, "delete tag")
	}

	s.logger.InfoContext(ctx, "tag deleted", "kind", kind, "tag_id", tagID)
	s.emit(ctx, deletedActions[kind], tagID, "")
	return nil
}

// List returns all tags of a kind sorted by name, collated for natural
// display order rather than raw byte order.
func (s *Service) List(ctx context.Context, kind models.Kind) ([]models.Tag, error) {
	if !kind.Valid() {
		return nil, domainerrors.Newf(domainerrors.CodeValidation, "unknown tag kind %q", kind)
	}

	tags, err := s.store.ListByKind(ctx, kind)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "list tags")
	}

	// Collators carry internal buffers, so build one per call.
	collator := collate.New(language.Und)
	sort.SliceStable(tags, func(i, j int) bool {
		return collator.CompareString(tags[i].Name, tags[j].Name) < 0
	})
	return tags, nil
}

func (s *Service) emit(ctx context.Context, action journal.Action, tagID uuid.UUID, detail string) {
	if s.publisher == nil {
		return
	}
	subject := tagID
	s.publisher.Emit(ctx, journal.Event{Action: action, SubjectID: &subject, Detail: detail})
}
