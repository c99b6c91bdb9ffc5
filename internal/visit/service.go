package visit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fieldsales/crm-comercios/internal/metrics"
)

// User-correctable submission errors. None of them causes a write.
var (
	ErrResponseRequired = errors.New("response is required")
	ErrDuplicateToday   = errors.New("a visit for this merchant was already logged today")
	ErrInvalidChannel   = errors.New("invalid contact channel")
	ErrInvalidOutcome   = errors.New("invalid contact outcome")
	ErrInvalidDate      = errors.New("invalid reschedule date (use YYYY-MM-DD)")
)

// Mirror receives a copy of every committed record.
type Mirror interface {
	Append(ctx context.Context, rec *Record) error
}

// MirrorFunc adapts a function to Mirror.
type MirrorFunc func(ctx context.Context, rec *Record) error

// Append calls f.
func (f MirrorFunc) Append(ctx context.Context, rec *Record) error { return f(ctx, rec) }

// Submission is the user input for one visit.
type Submission struct {
	RepresentativeID string  `json:"representative_id"`
	MerchantName     string  `json:"merchant_name"`
	Channel          Channel `json:"contact_channel"`
	Outcome          Outcome `json:"contact_outcome"`
	Response         string  `json:"response_text"`
	RescheduleDate   string  `json:"reschedule_date,omitempty"`
}

// SubmitResult is a committed record plus the outcome of the mirror write.
// MirrorErr is advisory: the record is stored regardless.
type SubmitResult struct {
	Record    *Record `json:"record"`
	MirrorErr error   `json:"-"`
}

// Service runs the submission workflow: validate, reject same-day
// duplicates, commit locally, then mirror best-effort.
type Service struct {
	repo    *Repository
	mirror  Mirror
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records submission outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a submission service. A nil mirror disables mirroring.
func NewService(repo *Repository, mirror Mirror, opts ...Option) *Service {
	s := &Service{repo: repo, mirror: mirror, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository returns the underlying store.
func (s *Service) Repository() *Repository { return s.repo }

// Submit validates and stores a visit.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	rec, err := s.build(sub)
	if err != nil {
		s.reject(err)
		return nil, err
	}

	exists, err := s.repo.ExistsToday(ctx, rec.RepresentativeID, rec.MerchantName, rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if exists {
		s.reject(ErrDuplicateToday)
		return nil, ErrDuplicateToday
	}

	stored, err := s.repo.Append(ctx, rec)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.VisitsSaved.Inc()
	}
	slog.InfoContext(ctx, "visit saved",
		"id", stored.ID,
		"legajo", stored.RepresentativeID,
		"merchant", stored.MerchantName,
		"outcome", stored.Outcome,
	)

	result := &SubmitResult{Record: stored}
	if s.mirror != nil {
		if err := s.mirror.Append(ctx, stored); err != nil {
			result.MirrorErr = fmt.Errorf("mirroring visit %d: %w", stored.ID, err)
			if s.metrics != nil {
				s.metrics.MirrorFailures.Inc()
			}
			slog.WarnContext(ctx, "visit mirror failed", "id", stored.ID, "error", err)
		}
	}

	return result, nil
}

func (s *Service) build(sub Submission) (*Record, error) {
	response := strings.TrimSpace(sub.Response)
	if response == "" {
		return nil, ErrResponseRequired
	}
	if !sub.Channel.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, sub.Channel)
	}
	if !sub.Outcome.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, sub.Outcome)
	}

	rec := &Record{
		RepresentativeID: strings.TrimSpace(sub.RepresentativeID),
		MerchantName:     strings.TrimSpace(sub.MerchantName),
		Channel:          sub.Channel,
		Outcome:          sub.Outcome,
		Response:         response,
		CreatedAt:        s.now(),
	}

	// Only an unreached merchant gets a new date.
	if date := strings.TrimSpace(sub.RescheduleDate); date != "" && sub.Outcome == OutcomeNotReached {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		rec.RescheduleDate = &date
	}

	if err := validate(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *Service) reject(err error) {
	if s.metrics == nil {
		return
	}
	reason := metrics.ReasonInvalid
	switch {
	case errors.Is(err, ErrResponseRequired):
		reason = metrics.ReasonMissingResponse
	case errors.Is(err, ErrDuplicateToday):
		reason = metrics.ReasonDuplicate
	}
	s.metrics.VisitsRejected.WithLabelValues(reason).Inc()
}
