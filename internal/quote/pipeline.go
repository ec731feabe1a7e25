package quote

import (
	"context"
	"time"

	"omerhsa-quotes/internal/common/errors"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/metrics"
	"omerhsa-quotes/internal/common/observability"
	"omerhsa-quotes/internal/models"
	quoterecord "omerhsa-quotes/internal/workers/quote/quote-record"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Recorder persists quotes. Implemented by quoterecord.Store.
type Recorder interface {
	Save(ctx context.Context, q models.QuoteRequest) (bool, error)
	UpdateStatus(ctx context.Context, in *quoterecord.Input) (time.Time, error)
}

// ProcessStarter starts the BPMN process that fans a quote out to the
// job workers. Implemented by camunda.Client.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables map[string]interface{}) (int64, error)
}

// LeadCreator is used when no process engine is configured.
type LeadCreator interface {
	CreateForQuote(ctx context.Context, q models.QuoteRequest) (string, error)
}

type Notifier interface {
	NotifyQuote(ctx context.Context, q models.QuoteRequest) error
}

type PipelineOptions struct {
	ProcessID string
	Recorder  Recorder
	Process   ProcessStarter
	Leads     LeadCreator
	Notifier  Notifier
	Obs       *observability.Observability
	Logger    logger.Logger
}

// Pipeline is the wizard's Submitter: validate, persist, dispatch.
type Pipeline struct {
	processID string
	recorder  Recorder
	process   ProcessStarter
	leads     LeadCreator
	notifier  Notifier
	obs       *observability.Observability
	logger    logger.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		processID: opts.ProcessID,
		recorder:  opts.Recorder,
		process:   opts.Process,
		leads:     opts.Leads,
		notifier:  opts.Notifier,
		obs:       opts.Obs,
		logger:    opts.Logger,
	}
	if p.processID == "" {
		p.processID = DefaultConfig().ProcessID
	}
	if p.obs == nil {
		p.obs = observability.NewNoop()
	}
	if p.logger == nil {
		p.logger = logger.NewNoOpLogger()
	}
	return p
}

func (p *Pipeline) dispatchMode() string {
	if p.process != nil {
		return "process"
	}
	return "inline"
}

// Submit runs the pipeline for q. Every stage is idempotent on q.ID so a
// retried submission never duplicates the stored quote.
func (p *Pipeline) Submit(ctx context.Context, q models.QuoteRequest) (err error) {
	start := time.Now()
	mode := p.dispatchMode()

	ctx, span := p.obs.StartSpan(ctx, "quote.submit",
		attribute.String("quote.id", q.ID),
		attribute.String("quote.insurance_type", string(q.InsuranceType)),
		attribute.String("quote.dispatch", mode),
	)
	defer func() {
		status := "submitted"
		if err != nil {
			status = "failed"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.QuoteSubmissions.WithLabelValues(string(q.InsuranceType), status).Inc()
		metrics.QuoteSubmissionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	}()

	if err = p.stage(ctx, "validate", func(ctx context.Context) error {
		return validateRecord(q)
	}); err != nil {
		return err
	}

	if err = p.stage(ctx, "persist", func(ctx context.Context) error {
		created, err := p.recorder.Save(ctx, q)
		if err == nil && !created {
			p.logger.Info("resubmitting recorded quote", map[string]interface{}{"quoteId": q.ID})
		}
		return err
	}); err != nil {
		return err
	}

	if mode == "process" {
		return p.stage(ctx, "dispatch", func(ctx context.Context) error {
			return p.startProcess(ctx, q)
		})
	}
	return p.stage(ctx, "dispatch", func(ctx context.Context) error {
		return p.dispatchInline(ctx, q)
	})
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := p.obs.StartSpan(ctx, "quote."+name)
	defer span.End()

	err := fn(ctx)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	p.obs.RecordStage(ctx, name, status, time.Since(start))
	return err
}

func (p *Pipeline) startProcess(ctx context.Context, q models.QuoteRequest) error {
	key, err := p.process.StartProcess(ctx, p.processID, q.ProcessVariables())
	if err != nil {
		return err
	}

	update := quoterecord.StatusUpdate(q.ID, models.QuoteDispatched)
	update.ProcessKey = key
	p.updateStatus(ctx, update)

	p.logger.Info("quote process started", map[string]interface{}{
		"quoteId":    q.ID,
		"processId":  p.processID,
		"processKey": key,
	})
	return nil
}

// dispatchInline runs the CRM and notification steps in process. The
// submission fails only when every configured channel failed.
func (p *Pipeline) dispatchInline(ctx context.Context, q models.QuoteRequest) error {
	var crmErr, notifyErr error
	attempted := 0

	if p.leads != nil {
		attempted++
		leadID, err := p.leads.CreateForQuote(ctx, q)
		if err != nil {
			crmErr = err
			p.logger.Warn("crm lead creation failed", map[string]interface{}{"quoteId": q.ID, "error": err.Error()})
		} else {
			update := quoterecord.StatusUpdate(q.ID, models.QuoteCRMSynced)
			update.CRMLeadID = leadID
			p.updateStatus(ctx, update)
		}
	}

	if p.notifier != nil {
		attempted++
		if err := p.notifier.NotifyQuote(ctx, q); err != nil {
			notifyErr = err
			p.logger.Warn("quote notification failed", map[string]interface{}{"quoteId": q.ID, "error": err.Error()})
		} else {
			p.updateStatus(ctx, quoterecord.StatusUpdate(q.ID, models.QuoteNotified))
		}
	}

	if attempted == 0 {
		p.logger.Warn("no dispatch configured, quote stored only", map[string]interface{}{"quoteId": q.ID})
		return nil
	}
	if (p.leads == nil || crmErr != nil) && (p.notifier == nil || notifyErr != nil) {
		p.updateStatus(ctx, quoterecord.StatusUpdate(q.ID, models.QuoteFailed))
		if crmErr != nil {
			return crmErr
		}
		return notifyErr
	}
	return nil
}

// updateStatus is best effort; failures are logged.
func (p *Pipeline) updateStatus(ctx context.Context, in *quoterecord.Input) {
	if _, err := p.recorder.UpdateStatus(ctx, in); err != nil {
		fields := map[string]interface{}{"quoteId": in.QuoteID, "status": in.Status, "error": err.Error()}
		if stdErr, ok := errors.As(err); ok {
			fields["code"] = string(stdErr.Code)
		}
		p.logger.Warn("quote status update failed", fields)
	}
}
