package quote

import (
	"context"
	stderrors "errors"
	"sync"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/metrics"
	"omerhsa-quotes/internal/models"
	"omerhsa-quotes/internal/wizard"
)

// Service runs one wizard per session. Live wizards are kept in memory so
// Abandon can cancel a pending submission; drafts are mirrored to redis so
// a session survives a restart.
type Service struct {
	cfg       Config
	drafts    *DraftStore
	submitter wizard.Submitter
	logger    logger.Logger

	mu     sync.Mutex
	active map[string]*wizard.Wizard

	// abandonEpoch moves on every Abandon; abandoning counts the Abandon
	// calls per session whose draft delete has not finished.
	abandonEpoch uint64
	abandoning   map[string]int
}

func NewService(cfg Config, drafts *DraftStore, submitter wizard.Submitter, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		cfg:        cfg,
		drafts:     drafts,
		submitter:  submitter,
		logger:     log.WithFields(map[string]interface{}{"component": "quote-service"}),
		active:     make(map[string]*wizard.Wizard),
		abandoning: make(map[string]int),
	}
}

func (s *Service) options() []wizard.Option {
	return []wizard.Option{
		wizard.WithRules(s.cfg.Rules),
		wizard.WithTimeout(s.cfg.SubmitTimeout),
		wizard.WithObserver(func(st wizard.State) {
			s.logger.Debug("submission state changed", map[string]interface{}{
				"sessionId":    st.SessionID,
				"submissionId": st.SubmissionID,
				"state":        string(st.Submission),
				"attempts":     st.Attempts,
			})
		}),
	}
}

// Start begins a fresh wizard for sessionID, replacing any draft. It is
// refused while a submission for the session is pending.
func (s *Service) Start(ctx context.Context, sessionID string) (View, error) {
	locked, err := s.drafts.Locked(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	if locked {
		return View{}, errors.NewSubmissionInProgressError()
	}

	w := wizard.New(sessionID, s.submitter, s.options()...)

	s.mu.Lock()
	if prev, ok := s.active[sessionID]; ok {
		prev.Close()
	}
	s.active[sessionID] = w
	s.mu.Unlock()

	snap := w.Snapshot()
	if err := s.drafts.Save(ctx, snap); err != nil {
		return View{}, err
	}
	metrics.WizardTransitions.WithLabelValues("start", "ok").Inc()
	return NewView(snap), nil
}

// Get returns the current wizard for sessionID or ErrNoDraft.
func (s *Service) Get(ctx context.Context, sessionID string) (View, error) {
	w, err := s.wizardFor(ctx, sessionID)
	if err != nil {
		return View{}, err
	}
	return NewView(w.Snapshot()), nil
}

// wizardFor returns the live wizard or restores it from the draft. A restore
// that overlaps an Abandon is retried so the dropped draft is not revived.
func (s *Service) wizardFor(ctx context.Context, sessionID string) (*wizard.Wizard, error) {
	for {
		s.mu.Lock()
		if w, ok := s.active[sessionID]; ok {
			s.mu.Unlock()
			return w, nil
		}
		if s.abandoning[sessionID] > 0 {
			s.mu.Unlock()
			return nil, ErrNoDraft
		}
		epoch := s.abandonEpoch
		s.mu.Unlock()

		state, err := s.drafts.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		if w, ok := s.active[sessionID]; ok {
			s.mu.Unlock()
			return w, nil
		}
		if s.abandonEpoch == epoch {
			w := wizard.Restore(state, s.submitter, s.options()...)
			s.active[sessionID] = w
			s.mu.Unlock()
			return w, nil
		}
		s.mu.Unlock()
	}
}

func (s *Service) mutate(ctx context.Context, sessionID, action string, fn func(*wizard.Wizard) error) (View, error) {
	w, err := s.wizardFor(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	if err := fn(w); err != nil {
		metrics.WizardTransitions.WithLabelValues(action, outcome(err)).Inc()
		return NewView(w.Snapshot()), err
	}
	metrics.WizardTransitions.WithLabelValues(action, "ok").Inc()

	snap := w.Snapshot()
	if err := s.drafts.Save(ctx, snap); err != nil {
		return NewView(snap), err
	}
	return NewView(snap), nil
}

func (s *Service) SelectInsurance(ctx context.Context, sessionID string, t models.InsuranceType) (View, error) {
	return s.mutate(ctx, sessionID, "select", func(w *wizard.Wizard) error {
		return w.SelectInsurance(t)
	})
}

func (s *Service) SetFields(ctx context.Context, sessionID string, fields map[wizard.Field]string) (View, error) {
	return s.mutate(ctx, sessionID, "set_fields", func(w *wizard.Wizard) error {
		return w.SetFields(fields)
	})
}

func (s *Service) Next(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, "next", func(w *wizard.Wizard) error {
		return w.Next()
	})
}

func (s *Service) Back(ctx context.Context, sessionID string) (View, error) {
	return s.mutate(ctx, sessionID, "back", func(w *wizard.Wizard) error {
		return w.Back()
	})
}

// Submit runs the pipeline for the session's wizard. The redis lock keeps a
// second submit for the same session out, even from another instance.
func (s *Service) Submit(ctx context.Context, sessionID string) (View, error) {
	w, err := s.wizardFor(ctx, sessionID)
	if err != nil {
		return View{}, err
	}

	acquired, err := s.drafts.Lock(ctx, sessionID, s.cfg.lockTTL())
	if err != nil {
		return NewView(w.Snapshot()), err
	}
	if !acquired {
		metrics.WizardTransitions.WithLabelValues("submit", "in_progress").Inc()
		return NewView(w.Snapshot()), errors.NewSubmissionInProgressError()
	}
	defer func() {
		if err := s.drafts.Unlock(context.WithoutCancel(ctx), sessionID); err != nil {
			s.logger.Warn("failed to release submit lock", map[string]interface{}{"sessionId": sessionID, "error": err.Error()})
		}
	}()

	submitErr := w.Submit(ctx)
	if stderrors.Is(submitErr, wizard.ErrClosed) {
		metrics.WizardTransitions.WithLabelValues("submit", "abandoned").Inc()
		return View{}, submitErr
	}
	metrics.WizardTransitions.WithLabelValues("submit", outcome(submitErr)).Inc()

	snap := w.Snapshot()
	if err := s.drafts.Save(context.WithoutCancel(ctx), snap); err != nil {
		s.logger.Warn("failed to persist draft after submit", map[string]interface{}{"sessionId": sessionID, "error": err.Error()})
	}

	if submitErr == nil {
		s.logger.Info("quote submitted", map[string]interface{}{
			"sessionId":     sessionID,
			"quoteId":       snap.SubmissionID,
			"insuranceType": string(snap.InsuranceType),
			"attempts":      snap.Attempts,
		})
	}
	return NewView(snap), submitErr
}

// Abandon discards the session's wizard. A pending submission is cancelled
// and its outcome dropped.
func (s *Service) Abandon(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	if w, ok := s.active[sessionID]; ok {
		w.Close()
		delete(s.active, sessionID)
	}
	s.abandonEpoch++
	s.abandoning[sessionID]++
	s.mu.Unlock()

	err := s.drafts.Delete(ctx, sessionID)

	s.mu.Lock()
	if s.abandoning[sessionID]--; s.abandoning[sessionID] <= 0 {
		delete(s.abandoning, sessionID)
	}
	s.mu.Unlock()

	metrics.WizardTransitions.WithLabelValues("abandon", "ok").Inc()
	return err
}

// Close cancels every pending submission. Used on shutdown.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.active {
		w.Close()
		delete(s.active, id)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var verr *wizard.ValidationError
	if stderrors.As(err, &verr) {
		return "invalid"
	}
	var serr *wizard.SubmissionError
	if stderrors.As(err, &serr) {
		return "failed"
	}
	if stdErr, ok := errors.As(err); ok && stdErr.Code == errors.ErrCodeInvalidTransition {
		return "rejected"
	}
	return "error"
}
