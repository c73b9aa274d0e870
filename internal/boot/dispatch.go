package boot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"k8s.io/klog/v2"
)

// Factory creates an unopened module for a medium.
type Factory func() Module

// Candidate is one medium the dispatcher may boot from, with its device
// description.
type Candidate struct {
	Medium Medium
	Config Config
}

// RetryPolicy bounds how often the dispatcher re-opens a medium whose
// hardware failed before moving on to the next candidate.
type RetryPolicy struct {
	MaxAttempts     uint64        `mapstructure:"max_attempts" json:"max_attempts" yaml:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval" json:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" json:"max_interval" yaml:"max_interval"`
}

// DefaultRetryPolicy tries each medium three times.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     200 * time.Millisecond,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.InitialInterval
	eb.MaxInterval = p.MaxInterval
	eb.MaxElapsedTime = 0

	retries := uint64(0)
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, retries), ctx)
}

// Dispatcher selects the boot medium. Media are registered by factory and
// tried in the order the caller lists them.
type Dispatcher struct {
	factories  map[Medium]Factory
	policy     RetryPolicy
	onComplete AsyncCallback
}

// NewDispatcher creates a dispatcher with the given retry policy.
func NewDispatcher(policy RetryPolicy) *Dispatcher {
	return &Dispatcher{
		factories: make(map[Medium]Factory),
		policy:    policy,
	}
}

// Register installs the factory for a medium, replacing any previous one.
func (d *Dispatcher) Register(m Medium, f Factory) {
	d.factories[m] = f
}

// SetAsyncCallback sets the completion callback handed to every Open.
func (d *Dispatcher) SetAsyncCallback(cb AsyncCallback) {
	d.onComplete = cb
}

// Open opens the first candidate that succeeds. Hardware failures are retried
// with exponential backoff; configuration and allocation failures move on to
// the next candidate immediately. The error lists every candidate's failure.
func (d *Dispatcher) Open(ctx context.Context, candidates []Candidate) (Module, Medium, error) {
	if len(candidates) == 0 {
		return nil, "", errors.New("no boot media configured")
	}

	var errs []error
	for _, c := range candidates {
		mod, err := d.openOne(ctx, c)
		if err == nil {
			klog.InfoS("Boot medium opened", "medium", c.Medium)
			return mod, c.Medium, nil
		}
		klog.V(1).InfoS("Boot medium unavailable", "medium", c.Medium, "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", c.Medium, err))

		if ctx.Err() != nil {
			break
		}
	}
	return nil, "", fmt.Errorf("no boot medium could be opened: %w", errors.Join(errs...))
}

func (d *Dispatcher) openOne(ctx context.Context, c Candidate) (Module, error) {
	factory, ok := d.factories[c.Medium]
	if !ok {
		return nil, NewConfigError(OpOpen, "no driver registered for medium %q", c.Medium)
	}
	if c.Config == nil || c.Config.Medium() != c.Medium {
		return nil, NewConfigError(OpOpen, "device description does not match medium %q", c.Medium)
	}

	mod := factory()
	attempt := 0
	operation := func() error {
		attempt++
		err := mod.Open(c.Config, d.onComplete)
		if err == nil {
			return nil
		}
		// Close is valid after a failed open and leaves the module reusable.
		_ = mod.Close()

		klog.V(2).InfoS("Open attempt failed", "medium", c.Medium, "attempt", attempt, "err", err)
		if !errors.Is(err, ErrHardware) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, d.policy.backOff(ctx)); err != nil {
		return nil, err
	}
	return mod, nil
}
