package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

// ChangeNotifier announces that a user's subscription set changed.
type ChangeNotifier interface {
	Publish(ctx context.Context, userID string) error
}

// MirrorPublisher hands a change to out-of-process consumers.
type MirrorPublisher interface {
	PublishSubscriptionsChanged(ctx context.Context, userID string) error
}

// SubscriptionService orchestrates writes: the store is authoritative and
// notifications after a successful write are best effort.
type SubscriptionService struct {
	store    storage.SubscriptionStore
	notifier ChangeNotifier
	mirror   MirrorPublisher
	now      func() time.Time
	closers  []func() error
}

type ServiceOption func(*SubscriptionService)

// WithClock overrides the clock used to roll billing dates forward.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *SubscriptionService) { s.now = now }
}

// WithCloser registers a resource released by Close.
func WithCloser(fn func() error) ServiceOption {
	return func(s *SubscriptionService) { s.closers = append(s.closers, fn) }
}

// NewSubscriptionService wires the service; notifier and mirror may be nil.
func NewSubscriptionService(store storage.SubscriptionStore, notifier ChangeNotifier, mirror MirrorPublisher, opts ...ServiceOption) *SubscriptionService {
	s := &SubscriptionService{
		store:    store,
		notifier: notifier,
		mirror:   mirror,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock.
func (s *SubscriptionService) Now() time.Time {
	return s.now()
}

// ValidationError wraps input errors so callers can tell them from storage failures.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid subscription: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidationError reports whether err came from input validation.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CreateSubscription validates input, rolls the start date forward and
// stores the result, returning the new id.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, userID string, in core.NewSubscription) (string, error) {
	if userID == "" {
		return "", core.ErrEmptyUserID
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return "", &ValidationError{Err: err}
	}

	next, err := NextBillingDate(in.StartDate, in.Cycle, s.now())
	if err != nil {
		return "", &ValidationError{Err: err}
	}

	sub := core.Subscription{
		Name:            in.Name,
		Cost:            in.Cost,
		Currency:        in.Currency,
		Cycle:           in.Cycle,
		Category:        in.Category,
		NextBillingDate: next,
		Color:           in.Color,
	}

	id, err := s.store.CreateSubscription(ctx, userID, sub)
	if err != nil {
		return "", fmt.Errorf("save subscription: %w", err)
	}

	sub.ID = id
	structured(ctx).LogSubscriptionCreated(ctx, userID, sub)

	s.announce(ctx, userID)
	return id, nil
}

// DeleteSubscription removes one of the user's subscriptions.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteSubscription(ctx, userID, id); err != nil {
		return fmt.Errorf("delete subscription %s: %w", id, err)
	}
	structured(ctx).LogSubscriptionDeleted(ctx, userID, id)
	s.announce(ctx, userID)
	return nil
}

func (s *SubscriptionService) ListSubscriptions(ctx context.Context, userID string) ([]core.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return subs, nil
}

// structured logs through the request logger when there is one.
func structured(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentSubscription))
}

func (s *SubscriptionService) announce(ctx context.Context, userID string) {
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, userID); err != nil {
			structured(ctx).LogError(ctx, "Failed to publish change notification", err,
				log.ComponentRealtime, log.OpNotify, log.NewFields().WithUser(userID))
		}
	}

	if s.mirror == nil {
		log.FromContext(ctx).DebugContext(ctx, "AMQP client not available, skipping mirror message")
		return
	}
	if err := s.mirror.PublishSubscriptionsChanged(ctx, userID); err != nil {
		structured(ctx).LogError(ctx, "Failed to publish mirror message", err,
			log.ComponentWorker, log.OpMirror, log.NewFields().WithUser(userID))
	}
}

// Close releases registered resources.
func (s *SubscriptionService) Close() error {
	var errs []error
	for _, fn := range s.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close subscription service: %w", errors.Join(errs...))
	}
	return nil
}
