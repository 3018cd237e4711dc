// Package widget runs the booking widget for one page visit at a time: it
// loads the visitor's session, applies one transition and saves it back.
package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/therapy-booking/internal/booking"
	"github.com/wolfman30/therapy-booking/internal/calendar"
	"github.com/wolfman30/therapy-booking/internal/observability/metrics"
	"github.com/wolfman30/therapy-booking/internal/sessions"
	"github.com/wolfman30/therapy-booking/pkg/logging"
)

var widgetTracer = otel.Tracer("therapy.internal.widget")

// pendingTimeout bounds how long a pending status written by another
// instance blocks submits and draft edits on the same session.
const pendingTimeout = 2 * time.Minute

// ServiceConfig wires a Service. Metrics, Logger and Clock are optional.
type ServiceConfig struct {
	Store     sessions.Store
	StoreName string
	Policy    calendar.Policy
	Deliverer booking.Deliverer
	Metrics   *metrics.WidgetMetrics
	Logger    *logging.Logger
	Clock     func() time.Time
}

// Service applies widget transitions to stored sessions.
type Service struct {
	store     sessions.Store
	storeName string
	policy    calendar.Policy
	deliverer booking.Deliverer
	metrics   *metrics.WidgetMetrics
	logger    *logging.Logger
	now       func() time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService validates cfg and returns a ready Service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Store == nil {
		panic("widget: session store required")
	}
	if cfg.Deliverer == nil {
		panic("widget: deliverer required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.StoreName == "" {
		cfg.StoreName = "memory"
	}
	return &Service{
		store:     cfg.Store,
		storeName: cfg.StoreName,
		policy:    cfg.Policy,
		deliverer: cfg.Deliverer,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.Component("widget"),
		now:       cfg.Clock,
		inflight:  make(map[string]struct{}),
	}
}

// Policy returns the availability policy the service applies.
func (s *Service) Policy() calendar.Policy {
	return s.policy
}

// Start opens a session showing the current month with an empty form.
func (s *Service) Start(ctx context.Context) (*View, error) {
	sess := sessions.New(s.now().In(s.policy.Location()))
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("widget: start session: %w", err)
	}
	s.metrics.ObserveSessionStarted(s.storeName)
	s.logger.Debug("session started", "session_id", sess.ID)
	return buildView(sess, s.policy), nil
}

// View renders the session without changing it.
func (s *Service) View(ctx context.Context, id string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildView(sess, s.policy), nil
}

// Navigate moves the calendar one month forward ("next") or back ("prev").
// Navigation never touches the selected date.
func (s *Service) Navigate(ctx context.Context, id, direction string) (*View, error) {
	var move func(calendar.Cursor) calendar.Cursor
	switch direction {
	case "next":
		move = calendar.Cursor.Next
	case "prev":
		move = calendar.Cursor.Prev
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, direction)
	}

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Cursor = move(sess.Cursor)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("widget: save session: %w", err)
	}
	s.metrics.ObserveNavigation(direction)
	return buildView(sess, s.policy), nil
}

// FieldUpdate carries the text fields to change. Nil fields are left alone.
type FieldUpdate struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Service     *string `json:"service"`
	Description *string `json:"description"`
}

// UpdateFields applies the non-nil fields of u to the draft.
func (s *Service) UpdateFields(ctx context.Context, id string, u FieldUpdate) (*View, error) {
	return s.mutate(ctx, id, func(f *booking.Form) error {
		if u.Service != nil {
			if err := f.SetService(*u.Service); err != nil {
				return err
			}
		}
		if u.Name != nil {
			f.SetName(*u.Name)
		}
		if u.Email != nil {
			f.SetEmail(*u.Email)
		}
		if u.Phone != nil {
			f.SetPhone(*u.Phone)
		}
		if u.Description != nil {
			f.SetDescription(*u.Description)
		}
		return nil
	})
}

// SelectDate picks a YYYY-MM-DD date in the practice time zone.
func (s *Service) SelectDate(ctx context.Context, id, date string) (*View, error) {
	day, err := s.policy.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}
	return s.mutate(ctx, id, func(f *booking.Form) error {
		return f.SelectDate(day)
	})
}

// SelectTime picks one of the offered slots for the selected date.
func (s *Service) SelectTime(ctx context.Context, id, label string) (*View, error) {
	return s.mutate(ctx, id, func(f *booking.Form) error {
		return f.SelectTime(label)
	})
}

func (s *Service) mutate(ctx context.Context, id string, apply func(*booking.Form) error) (*View, error) {
	if s.isInflight(id) {
		return nil, ErrSubmissionInFlight
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.pending(sess) {
		return nil, ErrSubmissionInFlight
	}
	form := booking.RestoreForm(s.policy, sess.Draft, sess.Submission)
	if err := apply(form); err != nil {
		return nil, err
	}
	sess.Draft = form.Draft()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("widget: save session: %w", err)
	}
	return buildView(sess, s.policy), nil
}

// Submit validates the draft and delivers it. The session is marked pending
// before delivery starts; a second submit for the same session meanwhile
// gets ErrSubmissionInFlight. The draft keeps one request ID across failed
// attempts until it is edited, so retries are recognisable downstream. The returned view reflects the outcome even
// when err is non-nil, except for lookup and in-flight errors.
func (s *Service) Submit(ctx context.Context, id string) (*View, error) {
	ctx, span := widgetTracer.Start(ctx, "widget.submit", trace.WithAttributes(
		attribute.String("therapy.session_id", id),
	))
	defer span.End()

	if !s.claim(id) {
		return nil, ErrSubmissionInFlight
	}
	defer s.release(id)

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.pending(sess) {
		return nil, ErrSubmissionInFlight
	}
	if sess.Draft.RequestID == "" {
		sess.Draft = sess.Draft.WithRequestID(uuid.NewString())
	}

	form := booking.RestoreForm(s.policy, sess.Draft, sess.Submission)
	if _, err := form.Validate(); err == nil {
		sess.Submission = booking.Submission{Status: booking.StatusPending, UpdatedAt: s.now().UTC()}
		if err := s.store.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("widget: mark pending: %w", err)
		}
	}

	_, submitErr := form.Submit(ctx, s.deliverer)
	s.metrics.ObserveSubmission("booking", outcome(submitErr))

	// Delivery may have happened even if the caller went away.
	saveCtx := context.WithoutCancel(ctx)
	if latest, err := s.store.Get(saveCtx, id); err == nil {
		sess = latest
	}
	sess.Draft = form.Draft()
	sess.Submission = form.Submission()
	if err := s.store.Save(saveCtx, sess); err != nil {
		s.logger.Error("failed to save submission outcome", "session_id", id, "error", err)
		if submitErr == nil {
			submitErr = fmt.Errorf("widget: save session: %w", err)
		}
	}

	view := buildView(sess, s.policy)
	if submitErr != nil {
		span.RecordError(submitErr)
		span.SetStatus(codes.Error, submitErr.Error())
		if !errors.Is(submitErr, booking.ErrValidation) {
			s.logger.Warn("booking submission failed", "session_id", id, "error", submitErr)
		}
		return view, submitErr
	}

	s.logger.Info("booking submitted", "session_id", id, "status", sess.Submission.Status)
	return view, nil
}

// Subscribe sends the free eBook to name/email.
func (s *Service) Subscribe(ctx context.Context, name, email string) (*booking.Subscription, error) {
	ctx, span := widgetTracer.Start(ctx, "widget.subscribe")
	defer span.End()

	form := booking.SubscriptionForm{Name: name, Email: email}
	sub, err := form.Submit(ctx, s.deliverer)
	s.metrics.ObserveSubmission("ebook", outcome(err))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.logger.Info("ebook subscription delivered")
	return sub, nil
}

// pending reports whether any instance is still delivering sess. A pending
// status older than pendingTimeout is treated as abandoned.
func (s *Service) pending(sess *sessions.Session) bool {
	return sess.Submission.Status == booking.StatusPending &&
		s.now().Sub(sess.Submission.UpdatedAt) < pendingTimeout
}

func (s *Service) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.inflight, id)
	s.mu.Unlock()
}

func (s *Service) isInflight(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inflight[id]
	return busy
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, booking.ErrValidation):
		return "invalid"
	default:
		return "failed"
	}
}
