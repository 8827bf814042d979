// Package service holds the visit use cases: recording signed facts,
// amending the mutable overlay, forgetting, browsing, and auditing the
// journal's integrity.
package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"waymark/internal/integrity"
	"waymark/internal/location"
	"waymark/internal/visits/metrics"
	"waymark/internal/visits/models"
	"waymark/internal/visits/store"
	id "waymark/pkg/domain"
	domainerrors "waymark/pkg/domain-errors"
	"waymark/pkg/platform/journal"
	"waymark/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Signer,BlobStore

// Signer produces and checks the tamper-evidence block on visit facts.
type Signer interface {
	Sign(ctx context.Context, payload integrity.Payload, createdAt time.Time) (models.Integrity, error)
	Verify(visit models.Visit) bool
}

// BlobStore persists photo bytes referenced from visit details.
type BlobStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// DefaultMaxPhotos caps attachments per visit.
const DefaultMaxPhotos = 5

var tracer = otel.Tracer("waymark/internal/visits")

// NewVisitInput carries the capture-time facts for one recording. A zero
// Timestamp means now.
type NewVisitInput struct {
	Latitude            float64
	Longitude           float64
	HorizontalAccuracy  *float64
	SimulatedBySoftware *bool
	ProducedByAccessory *bool
	Timestamp           time.Time
}

type Service struct {
	store     store.VisitStore
	signer    Signer
	blobs     BlobStore
	locator   location.Service
	publisher *journal.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	maxPhotos int
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithJournal(publisher *journal.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithBlobStore(blobs BlobStore) Option {
	return func(s *Service) { s.blobs = blobs }
}

func WithLocator(locator location.Service) Option {
	return func(s *Service) { s.locator = locator }
}

func WithMaxPhotos(max int) Option {
	return func(s *Service) { s.maxPhotos = max }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(visitStore store.VisitStore, signer Signer, opts ...Option) (*Service, error) {
	if visitStore == nil {
		return nil, domainerrors.New(domainerrors.CodeInvariantViolation, "visit store must not be nil")
	}
	if signer == nil {
		return nil, domainerrors.New(domainerrors.CodeInvariantViolation, "signer must not be nil")
	}
	s := &Service{
		store:     visitStore,
		signer:    signer,
		logger:    slog.Default(),
		maxPhotos: DefaultMaxPhotos,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record builds a visit fact from the input, signs it, and persists the
// aggregate with empty details. Nothing is persisted when signing fails;
// the journal never holds an unsigned fact.
func (s *Service) Record(ctx context.Context, input NewVisitInput) (models.VisitAggregate, error) {
	ctx, span := tracer.Start(ctx, "visits.Record")
	defer span.End()
	start := s.now()

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	visit, err := models.NewVisit(id.NewVisitID(), timestamp,
		input.Latitude, input.Longitude,
		input.HorizontalAccuracy, input.SimulatedBySoftware, input.ProducedByAccessory)
	if err != nil {
		return models.VisitAggregate{}, s.fail(span, err)
	}

	block, err := s.signer.Sign(ctx, integrity.PayloadFromVisit(visit), s.now())
	if err != nil {
		return models.VisitAggregate{}, s.fail(span,
			domainerrors.Wrap(err, domainerrors.CodeSigning, "sign visit"))
	}
	visit.Integrity = block

	aggregate, err := models.NewVisitAggregate(visit, models.VisitDetails{})
	if err != nil {
		return models.VisitAggregate{}, s.fail(span, err)
	}

	if err := s.store.Create(ctx, aggregate); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateID) {
			return models.VisitAggregate{}, s.fail(span,
				domainerrors.Wrap(err, domainerrors.CodeConflict, "visit id collision"))
		}
		return models.VisitAggregate{}, s.fail(span,
			domainerrors.Wrap(err, domainerrors.CodeStorage, "persist visit"))
	}

	span.SetAttributes(attribute.String("visit.id", aggregate.ID.String()))
	s.logger.InfoContext(ctx, "visit recorded", "visit_id", aggregate.ID,
		"latitude", visit.Latitude, "longitude", visit.Longitude)
	s.emit(ctx, journal.ActionVisitRecorded, aggregate.ID, "")
	if s.metrics != nil {
		s.metrics.VisitsRecorded.Inc()
		s.metrics.ObserveRecord(start)
	}
	return aggregate, nil
}

// RecordHere records a visit at the position the configured locator
// reports right now. location.ErrPermissionDenied passes through intact
// so callers can prompt for access.
func (s *Service) RecordHere(ctx context.Context) (models.VisitAggregate, error) {
	if s.locator == nil {
		return models.VisitAggregate{}, domainerrors.New(domainerrors.CodeInvariantViolation,
			"no location service configured")
	}

	position, err := s.locator.CurrentPosition(ctx)
	if err != nil {
		if errors.Is(err, location.ErrPermissionDenied) {
			return models.VisitAggregate{}, err
		}
		return models.VisitAggregate{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "resolve position")
	}

	return s.Record(ctx, NewVisitInput{
		Latitude:            position.Latitude,
		Longitude:           position.Longitude,
		HorizontalAccuracy:  position.HorizontalAccuracy,
		SimulatedBySoftware: position.Provenance.SimulatedBySoftware,
		ProducedByAccessory: position.Provenance.ProducedByAccessory,
	})
}

// AmendDetails applies the transform to the visit's mutable overlay. The
// signed fact is untouchable; only details change.
func (s *Service) AmendDetails(ctx context.Context, visitID id.VisitID, transform store.DetailsTransform) error {
	ctx, span := tracer.Start(ctx, "visits.AmendDetails",
		trace.WithAttributes(attribute.String("visit.id", visitID.String())))
	defer span.End()

	if err := s.store.UpdateDetails(ctx, visitID, transform); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.fail(span, domainerrors.Newf(domainerrors.CodeNotFound, "visit %s not found", visitID))
		}
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return s.fail(span, err)
		}
		return s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "amend details"))
	}

	s.logger.InfoContext(ctx, "visit amended", "visit_id", visitID)
	s.emit(ctx, journal.ActionVisitAmended, visitID, "")
	if s.metrics != nil {
		s.metrics.VisitsAmended.Inc()
	}
	return nil
}

// Forget removes a visit and its photo blobs. Blob deletion is best
// effort; a stranded blob is preferable to a half-deleted visit.
func (s *Service) Forget(ctx context.Context, visitID id.VisitID) error {
	ctx, span := tracer.Start(ctx, "visits.Forget",
		trace.WithAttributes(attribute.String("visit.id", visitID.String())))
	defer span.End()

	aggregate, found, err := s.store.Get(ctx, visitID)
	if err != nil {
		return s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "load visit"))
	}
	if !found {
		return s.fail(span, domainerrors.Newf(domainerrors.CodeNotFound, "visit %s not found", visitID))
	}

	if err := s.store.Delete(ctx, visitID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.fail(span, domainerrors.Newf(domainerrors.CodeNotFound, "visit %s not found", visitID))
		}
		return s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "delete visit"))
	}

	if s.blobs != nil {
		for _, path := range aggregate.Details.PhotoPaths {
			if err := s.blobs.Delete(ctx, path); err != nil {
				s.logger.WarnContext(ctx, "photo blob cleanup failed",
					"visit_id", visitID, "path", path, "error", err)
			}
		}
	}

	s.logger.InfoContext(ctx, "visit forgotten", "visit_id", visitID)
	s.emit(ctx, journal.ActionVisitForgotten, visitID, "")
	if s.metrics != nil {
		s.metrics.VisitsForgotten.Inc()
	}
	return nil
}

// Reset deletes every visit. Taxonomy entries survive; they are owned by
// the user, not by any one visit.
func (s *Service) Reset(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "visits.Reset")
	defer span.End()

	if err := s.store.DeleteAll(ctx); err != nil {
		return s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "reset visits"))
	}

	s.logger.InfoContext(ctx, "visit journal reset")
	if s.publisher != nil {
		s.publisher.Emit(ctx, journal.Event{Action: journal.ActionVisitsReset})
	}
	if s.metrics != nil {
		s.metrics.JournalResets.Inc()
	}
	return nil
}

// Find returns one aggregate by id.
func (s *Service) Find(ctx context.Context, visitID id.VisitID) (models.VisitAggregate, error) {
	aggregate, found, err := s.store.Get(ctx, visitID)
	if err != nil {
		return models.VisitAggregate{}, domainerrors.Wrap(err, domainerrors.CodeStorage, "load visit")
	}
	if !found {
		return models.VisitAggregate{}, domainerrors.Newf(domainerrors.CodeNotFound, "visit %s not found", visitID)
	}
	return aggregate, nil
}

// Browse returns aggregates matching the store filter.
func (s *Service) Browse(ctx context.Context, filter store.Filter) ([]models.VisitAggregate, error) {
	aggregates, err := s.store.Fetch(ctx, filter)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "browse visits")
	}
	return aggregates, nil
}

// Audit re-verifies every stored fact and returns the ids whose
// signature no longer checks out.
func (s *Service) Audit(ctx context.Context) ([]id.VisitID, error) {
	ctx, span := tracer.Start(ctx, "visits.Audit")
	defer span.End()

	aggregates, err := s.store.Fetch(ctx, store.Filter{})
	if err != nil {
		return nil, s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "audit visits"))
	}

	var suspects []id.VisitID
	for _, aggregate := range aggregates {
		if !s.signer.Verify(aggregate.Visit) {
			suspects = append(suspects, aggregate.ID)
		}
	}

	span.SetAttributes(
		attribute.Int("audit.checked", len(aggregates)),
		attribute.Int("audit.suspects", len(suspects)))
	if len(suspects) > 0 {
		s.logger.WarnContext(ctx, "integrity audit found suspect visits", "count", len(suspects))
	}
	if s.metrics != nil {
		s.metrics.AuditRuns.Inc()
		s.metrics.AuditSuspects.Set(float64(len(suspects)))
	}
	return suspects, nil
}

// AttachPhoto stores the bytes and references them from the visit. The
// per-visit cap is enforced inside the store transform, so racing
// attaches cannot overshoot it.
func (s *Service) AttachPhoto(ctx context.Context, visitID id.VisitID, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "visits.AttachPhoto",
		trace.WithAttributes(attribute.String("visit.id", visitID.String())))
	defer span.End()

	if s.blobs == nil {
		return "", s.fail(span, domainerrors.New(domainerrors.CodeInvariantViolation,
			"no blob store configured"))
	}
	if len(data) == 0 {
		return "", s.fail(span, domainerrors.New(domainerrors.CodeValidation, "photo data must not be empty"))
	}

	path, err := s.blobs.Save(ctx, data)
	if err != nil {
		return "", s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "save photo"))
	}

	err = s.store.UpdateDetails(ctx, visitID, func(details models.VisitDetails) (models.VisitDetails, error) {
		if slices.Contains(details.PhotoPaths, path) {
			return details, nil
		}
		if len(details.PhotoPaths) >= s.maxPhotos {
			return models.VisitDetails{}, domainerrors.Newf(domainerrors.CodeValidation,
				"visit already has %d photos", s.maxPhotos)
		}
		details.PhotoPaths = append(details.PhotoPaths, path)
		return details, nil
	})
	if err != nil {
		// The blob may be shared with another visit, so it stays.
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", s.fail(span, domainerrors.Newf(domainerrors.CodeNotFound, "visit %s not found", visitID))
		}
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return "", s.fail(span, err)
		}
		return "", s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "attach photo"))
	}

	s.emit(ctx, journal.ActionPhotoAttached, visitID, path)
	if s.metrics != nil {
		s.metrics.PhotosAttached.Inc()
	}
	return path, nil
}

// DetachPhoto removes the reference and then the blob. The blob delete
// is best effort once the reference is gone.
func (s *Service) DetachPhoto(ctx context.Context, visitID id.VisitID, path string) error {
	ctx, span := tracer.Start(ctx, "visits.DetachPhoto",
		trace.WithAttributes(attribute.String("visit.id", visitID.String())))
	defer span.End()

	err := s.store.UpdateDetails(ctx, visitID, func(details models.VisitDetails) (models.VisitDetails, error) {
		index := slices.Index(details.PhotoPaths, path)
		if index < 0 {
			return models.VisitDetails{}, domainerrors.Newf(domainerrors.CodeNotFound,
				"photo %s not attached to visit", path)
		}
		details.PhotoPaths = slices.Delete(slices.Clone(details.PhotoPaths), index, index+1)
		return details, nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.fail(span, domainerrors.Newf(domainerrors.CodeNotFound, "visit %s not found", visitID))
		}
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return s.fail(span, err)
		}
		return s.fail(span, domainerrors.Wrap(err, domainerrors.CodeStorage, "detach photo"))
	}

	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, path); err != nil {
			s.logger.WarnContext(ctx, "photo blob cleanup failed",
				"visit_id", visitID, "path", path, "error", err)
		}
	}

	s.emit(ctx, journal.ActionPhotoDetached, visitID, path)
	if s.metrics != nil {
		s.metrics.PhotosDetached.Inc()
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action journal.Action, visitID id.VisitID, detail string) {
	if s.publisher == nil {
		return
	}
	subject := uuid.UUID(visitID)
	s.publisher.Emit(ctx, journal.Event{Action: action, SubjectID: &subject, Detail: detail})
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	return err
}
