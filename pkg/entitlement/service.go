package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prepdeck/prepdeck/pkg/logger"
	"github.com/prepdeck/prepdeck/pkg/plan"
	"github.com/prepdeck/prepdeck/pkg/session"
	"github.com/prepdeck/prepdeck/pkg/usage"
)

// Service evaluates entitlements for an authenticated session.
type Service struct {
	evaluator  *Evaluator
	accountant *usage.Accountant
	period     usage.Period
	now        func() time.Time
	counters   map[plan.LimitName]usage.Counter
	recorder   Recorder
	log        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPeriod sets the usage window policy. Defaults to the UTC calendar month.
func WithPeriod(p usage.Period) Option {
	return func(s *Service) {
		if p != nil {
			s.period = p
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCounter maps a limit to the counter that measures it. By default every
// limit is measured by the counter of the same name.
func WithCounter(name plan.LimitName, counter usage.Counter) Option {
	return func(s *Service) {
		s.counters[name] = counter
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(evaluator *Evaluator, accountant *usage.Accountant, opts ...Option) *Service {
	if evaluator == nil {
		panic("entitlement: evaluator is required")
	}
	if accountant == nil {
		panic("entitlement: accountant is required")
	}

	s := &Service{
		evaluator:  evaluator,
		accountant: accountant,
		period:     usage.CalendarMonth(time.UTC),
		now:        time.Now,
		counters:   make(map[plan.LimitName]usage.Counter),
		recorder:   nopRecorder{},
		log:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluator exposes the underlying evaluator.
func (s *Service) Evaluator() *Evaluator { return s.evaluator }

// PeriodStart returns the start of the usage window for sess.
func (s *Service) PeriodStart(sess session.Session) time.Time {
	return s.period(s.now(), sess.PeriodEnd)
}

func (s *Service) counterFor(name plan.LimitName) usage.Counter {
	if c, ok := s.counters[name]; ok {
		return c
	}
	return usage.Counter(name)
}

// Check counts the session's usage for name in the current window and decides.
func (s *Service) Check(ctx context.Context, sess session.Session, name plan.LimitName) (Decision, error) {
	if _, err := s.evaluator.Limit(sess.Tier, name); err != nil {
		return Decision{}, err
	}

	used, err := s.count(ctx, sess, name)
	if err != nil {
		return Decision{}, err
	}

	d, err := s.evaluator.CheckLimit(sess.Tier, name, used)
	if err != nil {
		return Decision{}, err
	}
	s.recorder.RecordDecision(KindLimit, string(sess.Tier), string(name), d.Allowed)
	return d, nil
}

// Require returns a *QuotaError when the session cannot create another item
// counted by name. Unlimited limits return without reading usage.
func (s *Service) Require(ctx context.Context, sess session.Session, name plan.LimitName) error {
	limit, err := s.evaluator.Limit(sess.Tier, name)
	if err != nil {
		return err
	}
	if limit.IsUnlimited() {
		s.recorder.RecordDecision(KindLimit, string(sess.Tier), string(name), true)
		return nil
	}

	d, err := s.Check(ctx, sess, name)
	if err != nil {
		return err
	}
	if !d.Allowed {
		s.log.InfoContext(ctx, "usage quota reached",
			logger.UserID(sess.UserID.String()),
			logger.Tier(string(sess.Tier)),
			logger.Limit(string(name)),
			slog.Int64("used", d.Used),
		)
		return &QuotaError{Tier: sess.Tier, Limit: name, Decision: d}
	}
	return nil
}

// RequireFeature returns a *FeatureError when the session's tier lacks feature.
func (s *Service) RequireFeature(ctx context.Context, sess session.Session, feature plan.Feature) error {
	err := s.evaluator.RequireFeature(sess.Tier, feature)
	var fe *FeatureError
	switch {
	case errors.As(err, &fe):
		s.recorder.RecordDecision(KindFeature, string(sess.Tier), string(feature), false)
		s.log.InfoContext(ctx, "feature not entitled",
			logger.UserID(sess.UserID.String()),
			logger.Tier(string(sess.Tier)),
			logger.Feature(string(feature)),
		)
	case err == nil:
		s.recorder.RecordDecision(KindFeature, string(sess.Tier), string(feature), true)
	}
	return err
}

func (s *Service) count(ctx context.Context, sess session.Session, name plan.LimitName) (int64, error) {
	counter := s.counterFor(name)
	start := time.Now()
	used, err := s.accountant.Count(ctx, sess.UserID, counter, s.PeriodStart(sess))
	s.recorder.ObserveCount(string(counter), time.Since(start))
	if errors.Is(err, ErrStorageUnavailable) {
		s.recorder.RecordStorageFailure(string(counter))
	}
	return used, err
}

// Overview is everything a client needs to render plan state.
type Overview struct {
	Tier        plan.Tier
	PeriodStart time.Time
	Features    map[plan.Feature]bool
	Limits      map[plan.LimitName]Decision
}

// Overview evaluates every feature and limit of the session's plan. Counters
// are read concurrently; any failure fails the whole overview.
func (s *Service) Overview(ctx context.Context, sess session.Session) (Overview, error) {
	p, err := s.evaluator.Catalog().Plan(sess.Tier)
	if err != nil {
		return Overview{}, err
	}

	names := p.LimitNames()
	counters := make([]usage.Counter, len(names))
	for i, name := range names {
		counters[i] = s.counterFor(name)
	}

	periodStart := s.PeriodStart(sess)
	counts, err := s.accountant.CountAll(ctx, sess.UserID, counters, periodStart)
	if err != nil {
		if errors.Is(err, ErrStorageUnavailable) {
			s.recorder.RecordStorageFailure("overview")
		}
		return Overview{}, err
	}

	out := Overview{
		Tier:        sess.Tier,
		PeriodStart: periodStart,
		Features:    p.Features,
		Limits:      make(map[plan.LimitName]Decision, len(names)),
	}
	for i, name := range names {
		limit, _ := p.Limit(name)
		out.Limits[name] = decide(limit, counts[counters[i]])
	}
	return out, nil
}

// CanDowngrade checks whether the session's current usage fits the target
// plan. It returns the plan comparison and, when usage already exceeds a
// target limit, a *DowngradeError naming the blocking limits.
func (s *Service) CanDowngrade(ctx context.Context, sess session.Session, target plan.Tier) (plan.Comparison, error) {
	catalog := s.evaluator.Catalog()
	current, err := catalog.Plan(sess.Tier)
	if err != nil {
		return plan.Comparison{}, err
	}
	next, err := catalog.Plan(target)
	if err != nil {
		return plan.Comparison{}, err
	}

	cmp := plan.Compare(current, next)
	blocking := make(map[plan.LimitName]Decision)
	for name, change := range cmp.DecreasedLimits {
		used, err := s.count(ctx, sess, name)
		if err != nil {
			return cmp, err
		}
		capacity, _ := change.To.Max()
		if used > capacity {
			blocking[name] = decide(change.To, used)
		}
	}

	if len(blocking) > 0 {
		return cmp, &DowngradeError{Target: target, Blocking: blocking}
	}
	return cmp, nil
}
