package wizard

import (
	"context"
	"sync"
	"time"

	"omerhsa-quotes/internal/models"
)

// Submitter delivers a finished quote request. It is called once per
// user-initiated submit.
type Submitter interface {
	Submit(ctx context.Context, req models.QuoteRequest) error
}

type SubmitterFunc func(ctx context.Context, req models.QuoteRequest) error

func (f SubmitterFunc) Submit(ctx context.Context, req models.QuoteRequest) error {
	return f(ctx, req)
}

type Option func(*Wizard)

// WithTimeout bounds each submission.
func WithTimeout(d time.Duration) Option {
	return func(w *Wizard) { w.timeout = d }
}

// WithObserver registers fn to receive a snapshot whenever the submission
// state changes. fn runs outside the wizard lock.
func WithObserver(fn func(State)) Option {
	return func(w *Wizard) { w.observer = fn }
}

func WithRules(r Rules) Option {
	return func(w *Wizard) { w.state.SetRules(r) }
}

// Wizard owns one State and the pending submission, if any.
type Wizard struct {
	mu        sync.Mutex
	state     *State
	submitter Submitter
	cancel    context.CancelFunc
	closed    bool
	timeout   time.Duration
	observer  func(State)
}

func New(sessionID string, submitter Submitter, opts ...Option) *Wizard {
	return Restore(NewState(sessionID), submitter, opts...)
}

// Restore wraps an existing state, e.g. a draft loaded from storage.
func Restore(state *State, submitter Submitter, opts ...Option) *Wizard {
	w := &Wizard{state: state, submitter: submitter}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns a copy of the current state.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.state
}

func (w *Wizard) apply(fn func(*State) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return fn(w.state)
}

func (w *Wizard) SelectInsurance(t models.InsuranceType) error {
	return w.apply(func(s *State) error { return s.SelectInsurance(t) })
}

func (w *Wizard) SetField(field Field, value string) error {
	return w.apply(func(s *State) error { return s.SetField(field, value) })
}

// SetFields applies edits in order and stops at the first rejected one.
func (w *Wizard) SetFields(fields map[Field]string) error {
	return w.apply(func(s *State) error {
		for _, f := range sortedFields(fields) {
			if err := s.SetField(f, fields[f]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Wizard) Next() error {
	return w.apply(func(s *State) error { return s.Next() })
}

func (w *Wizard) Back() error {
	return w.apply(func(s *State) error { return s.Back() })
}

// Submit runs the submitter with the wizard unlocked so Close can cancel it.
// If the wizard is closed before the submitter returns, the outcome is
// discarded and ErrClosed is returned.
func (w *Wizard) Submit(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	record, err := w.state.BeginSubmit()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	var cancel context.CancelFunc
	if w.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	w.cancel = cancel
	snap := *w.state
	w.mu.Unlock()
	w.notify(snap)

	submitErr := w.submitter.Submit(ctx, record)
	cancel()

	w.mu.Lock()
	w.cancel = nil
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	var result error
	if submitErr != nil {
		serr := FromError(submitErr)
		_ = w.state.FailSubmit(serr)
		result = serr
	} else {
		_ = w.state.CompleteSubmit()
	}
	snap = *w.state
	w.mu.Unlock()
	w.notify(snap)

	return result
}

// Submitting reports whether a submission is pending.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Submission == models.StateSubmitting
}

// Close cancels a pending submission. Later transitions return ErrClosed.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Wizard) notify(s State) {
	if w.observer != nil {
		w.observer(s)
	}
}

var fieldOrder = []Field{
	FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldLocation,
	FieldVehicleModel, FieldVehicleYear, FieldVehicleValue, FieldOwnerCategory,
	FieldComments,
}

// sortedFields yields known fields in form order followed by any unknown ones,
// so an unknown field is reported after the known edits are applied.
func sortedFields(fields map[Field]string) []Field {
	out := make([]Field, 0, len(fields))
	known := make(map[Field]bool, len(fieldOrder))
	for _, f := range fieldOrder {
		known[f] = true
		if _, ok := fields[f]; ok {
			out = append(out, f)
		}
	}
	for f := range fields {
		if !known[f] {
			out = append(out, f)
		}
	}
	return out
}
