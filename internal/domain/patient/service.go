package patient

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks Scorer,EventPublisher

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ehr/riskcare/internal/platform/metrics"
	"github.com/ehr/riskcare/internal/platform/middleware"
	"github.com/ehr/riskcare/internal/scoring"
)

// Scorer produces a risk score from the seven scoring features.
type Scorer interface {
	Score(ctx context.Context, f scoring.Features) (scoring.Result, error)
}

// EventPublisher delivers RiskEvents keyed by patient id.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

const sideEffectTimeout = 3 * time.Second

// Service runs the patient workflows. On create and update, scoring always
// happens after validation passes and before anything is written; a failed
// step ends the workflow with nothing persisted and nothing retried.
type Service struct {
	repo   Repository
	scorer Scorer
	events EventPublisher
	cache  SummaryCache
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

type Option func(*Service)

// WithEvents publishes a RiskEvent after every successful write.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// WithSummaryCache reads summaries through c and clears the owner's entry on
// every write.
func WithSummaryCache(c SummaryCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func NewService(repo Repository, scorer Scorer, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		scorer: scorer,
		logger: zerolog.Nop(),
		tracer: otel.Tracer("github.com/ehr/riskcare/internal/domain/patient"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in, scores it and stores the result.
func (s *Service) Create(ctx context.Context, in PatientInput) (p *Patient, err error) {
	ctx, span := s.tracer.Start(ctx, "patient.Create")
	defer func() { s.finish(ctx, span, "create", err) }()

	in = in.Normalize()
	if violations := Validate(in); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	res, err := s.scorer.Score(ctx, in.Features())
	if err != nil {
		return nil, &ScoringUnavailableError{Err: err}
	}

	p = newPatient(in, res)
	if _, err := s.repo.Insert(ctx, p); err != nil {
		return nil, &PersistenceError{Op: "insert", Err: err}
	}

	span.SetAttributes(attribute.Int64("patient.id", p.ID))
	s.afterWrite(ctx, EventCreated, p)
	return p, nil
}

// Get returns ErrNotFound when id does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "get", Err: err}
	}
	return p, nil
}

// List returns q's full ordered result set.
func (s *Service) List(ctx context.Context, q ListQuery) (patients []*Patient, err error) {
	ctx, span := s.tracer.Start(ctx, "patient.List", trace.WithAttributes(
		attribute.Int64("clinician.id", q.OwnerID),
		attribute.String("list.sort", string(q.Sort)),
		attribute.String("list.risk_level", string(q.RiskLevel)),
	))
	defer func() { s.finish(ctx, span, "list", err) }()

	if q.OwnerID <= 0 {
		return nil, &ValidationError{Violations: []string{"Clinician ID is required"}}
	}

	patients, err = s.repo.GetFiltered(ctx, q)
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	return patients, nil
}

// Update replaces every clinical field of patient id and re-scores it. The
// input must be the full record; omitted optional measurements are cleared.
func (s *Service) Update(ctx context.Context, id int64, in PatientInput) (p *Patient, err error) {
	ctx, span := s.tracer.Start(ctx, "patient.Update", trace.WithAttributes(attribute.Int64("patient.id", id)))
	defer func() { s.finish(ctx, span, "update", err) }()

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "get", Err: err}
	}

	in = in.Normalize()
	violations := Validate(in)
	if in.ClinicianID > 0 && in.ClinicianID != existing.ClinicianID {
		violations = append(violations, "Clinician ID cannot be changed")
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	res, err := s.scorer.Score(ctx, in.Features())
	if err != nil {
		return nil, &ScoringUnavailableError{Err: err}
	}

	p = newPatient(in, res)
	p.ID = id
	if err := s.repo.UpdateByID(ctx, p, existing.Version); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "update", Err: err}
	}

	s.afterWrite(ctx, EventUpdated, p)
	return p, nil
}

// Delete removes patient id in one statement.
func (s *Service) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := s.tracer.Start(ctx, "patient.Delete", trace.WithAttributes(attribute.Int64("patient.id", id)))
	defer func() { s.finish(ctx, span, "delete", err) }()

	p, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "delete", Err: err}
	}

	s.afterWrite(ctx, EventDeleted, p)
	return nil
}

// Summary counts a clinician's patients per risk category. Cache failures
// fall back to the repository.
func (s *Service) Summary(ctx context.Context, clinicianID int64) (*Summary, error) {
	if clinicianID <= 0 {
		return nil, &ValidationError{Violations: []string{"Clinician ID is required"}}
	}

	var gen int64
	fill := false
	if s.cache != nil {
		cached, g, err := s.cache.Get(ctx, clinicianID)
		switch {
		case err != nil:
			metrics.ObserveSummaryCache("error")
			s.logger.Warn().Err(err).Int64("clinician_id", clinicianID).Msg("summary cache read failed")
		case cached != nil:
			metrics.ObserveSummaryCache("hit")
			return cached, nil
		default:
			metrics.ObserveSummaryCache("miss")
			gen, fill = g, true
		}
	}

	counts, err := s.repo.CountByCategory(ctx, clinicianID)
	if err != nil {
		return nil, &PersistenceError{Op: "count", Err: err}
	}
	summary := newSummary(clinicianID, counts)

	// Counts read before a concurrent write are stored under gen, which that
	// write's Invalidate has already retired.
	if fill {
		if err := s.cache.Set(ctx, summary, gen); err != nil {
			s.logger.Warn().Err(err).Int64("clinician_id", clinicianID).Msg("summary cache write failed")
		}
	}
	return summary, nil
}

// afterWrite runs once a write has committed. Its failures are logged only.
func (s *Service) afterWrite(ctx context.Context, t EventType, p *Patient) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, p.ClinicianID); err != nil {
			s.logger.Warn().Err(err).Int64("clinician_id", p.ClinicianID).Msg("summary cache invalidation failed")
		}
	}

	if s.events != nil {
		evt := newRiskEvent(t, p, s.now())
		if err := s.events.Publish(ctx, strconv.FormatInt(p.ID, 10), evt); err != nil {
			s.logger.Error().Err(err).
				Str("event_type", string(t)).
				Int64("patient_id", p.ID).
				Msg("risk event publish failed")
		}
	}
}

func (s *Service) finish(ctx context.Context, span trace.Span, op string, err error) {
	outcome := Outcome(err)
	metrics.ObserveWorkflow(op, outcome)
	span.SetAttributes(attribute.String("workflow.outcome", outcome))

	evt := s.logger.Debug()
	switch outcome {
	case "success":
	case "scoring_unavailable", "persistence_error":
		evt = s.logger.Error().Err(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	default:
		evt = s.logger.Info().Err(err)
	}
	evt.Str("request_id", middleware.RequestIDFromContext(ctx)).
		Str("operation", op).
		Str("outcome", outcome).
		Msg("patient workflow")
	span.End()
}

// Outcome names the workflow result for metrics and logs.
func Outcome(err error) string {
	var ve *ValidationError
	var se *ScoringUnavailableError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve):
		return "validation_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.As(err, &se):
		return "scoring_unavailable"
	default:
		return "persistence_error"
	}
}
