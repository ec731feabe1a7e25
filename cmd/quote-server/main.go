// cmd/quote-server/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"omerhsa-quotes/internal/api"
	"omerhsa-quotes/internal/common/auth"
	commonaws "omerhsa-quotes/internal/common/aws"
	"omerhsa-quotes/internal/common/camunda"
	"omerhsa-quotes/internal/common/config"
	"omerhsa-quotes/internal/common/database"
	"omerhsa-quotes/internal/common/logger"
	"omerhsa-quotes/internal/common/observability"
	"omerhsa-quotes/internal/common/zoho"
	"omerhsa-quotes/internal/contact"
	"omerhsa-quotes/internal/content"
	"omerhsa-quotes/internal/quote"
	"omerhsa-quotes/internal/session"
	"omerhsa-quotes/internal/site"
	"omerhsa-quotes/pkg/registry"

	es "omerhsa-quotes/internal/workers/communication/email-send"
	ccc "omerhsa-quotes/internal/workers/crm/crm-contact-create"
	clc "omerhsa-quotes/internal/workers/crm/crm-lead-create"
	qr "omerhsa-quotes/internal/workers/quote/quote-record"
	sqn "omerhsa-quotes/internal/workers/quote/send-quote-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// workerOptions merges the registry entry for taskType over the worker config.
func workerOptions(reg *registry.ActivityRegistry, taskType string, maxJobs int, timeout time.Duration) camunda.WorkerOptions {
	opts := camunda.WorkerOptions{MaxJobsActive: maxJobs, Timeout: timeout}
	if reg == nil {
		return opts
	}
	if activity, ok := reg.Find(taskType); ok {
		opts.Timeout = activity.TimeoutDuration(timeout)
	}
	return opts
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting quote server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, cfg.Observability.SampleRatio, zapLog)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(ctx, func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch; content falls back to the catalog without it ---
	var searcher content.Searcher
	var esSearcher *content.ElasticSearcher
	if cfg.Database.Elasticsearch.Enabled {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err == nil {
			err = retryWithBackoff(ctx, func() error { return esClient.Ping(ctx) }, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		}
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, content search uses the catalog", zap.Error(err))
		} else {
			esSearcher = content.NewElasticSearcher(esClient.Client, cfg.Database.Elasticsearch.ContentIndex)
			searcher = esSearcher
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Init External Service Clients ---
	crmClient := zoho.NewCRMClient(cfg.Integrations.Zoho.APIKey, cfg.Integrations.Zoho.AuthToken, cfg.Integrations.Zoho.BaseURL)

	var emailSender sqn.EmailSender
	var smsSender sqn.SMSSender
	if cfg.Integrations.AWS.SES.Enabled || cfg.Integrations.AWS.SNS.Enabled {
		awsCfg, err := commonaws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Integrations.AWS.SES.Enabled {
			emailSender = commonaws.NewSESClient(awsCfg)
		}
		if cfg.Integrations.AWS.SNS.Enabled {
			smsSender = commonaws.NewSNSClient(awsCfg, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
		}
	}
	zapLog.Info("All external service clients initialized")

	// --- Worker handlers; also used inline when the process engine is off ---
	recordStore := qr.NewStore(pg.DB, log)
	recordHandler, err := qr.NewHandler(qr.HandlerOptions{AppConfig: cfg, Store: recordStore, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create quote-record handler", zap.Error(err))
	}
	leadHandler, err := clc.NewHandler(clc.HandlerOptions{AppConfig: cfg, CRM: crmClient, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create crm-lead-create handler", zap.Error(err))
	}
	contactHandler, err := ccc.NewHandler(ccc.HandlerOptions{AppConfig: cfg, CRM: crmClient, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create crm-contact-create handler", zap.Error(err))
	}
	notifyHandler, err := sqn.NewHandler(sqn.HandlerOptions{AppConfig: cfg, Email: emailSender, SMS: smsSender, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create send-quote-notification handler", zap.Error(err))
	}

	var emailHandler *es.Handler
	var mailer contact.Mailer
	if cfg.Integrations.SMTP.Host != "" {
		emailHandler, err = es.NewHandler(es.HandlerOptions{AppConfig: cfg, Logger: log})
		if err != nil {
			zapLog.Fatal("failed to create email-send handler", zap.Error(err))
		}
		mailer = emailHandler
	} else {
		zapLog.Warn("smtp not configured, contact messages are only stored")
	}

	// --- Camunda: deploy the quote process and open the job workers ---
	var process quote.ProcessStarter
	var zeebe *camunda.Client
	var workers *camunda.WorkerGroup
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()

		key, err := zeebe.DeployProcess(ctx, cfg.Camunda.ProcessFile)
		if err != nil {
			zapLog.Fatal("process deployment failed", zap.Error(err), zap.String("file", cfg.Camunda.ProcessFile))
		}
		zapLog.Info("process deployed", zap.String("processId", cfg.Camunda.ProcessID), zap.Int64("deploymentKey", key))
		process = zeebe

		reg, err := registry.LoadRegistry(cfg.Camunda.RegistryPath)
		if err == nil {
			err = reg.Validate()
		}
		if err != nil {
			zapLog.Warn("activity registry unavailable, using worker config", zap.Error(err))
			reg = nil
		}

		workers = camunda.NewWorkerGroup(zeebe.GetClient(), zapLog)
		if c := recordHandler.Config(); c.Enabled {
			workers.Start(qr.TaskType, workerOptions(reg, qr.TaskType, c.MaxJobsActive, c.Timeout), recordHandler)
		}
		if c := leadHandler.Config(); c.Enabled {
			workers.Start(clc.TaskType, workerOptions(reg, clc.TaskType, c.MaxJobsActive, c.Timeout), leadHandler)
		}
		if c := contactHandler.Config(); c.Enabled {
			workers.Start(ccc.TaskType, workerOptions(reg, ccc.TaskType, c.MaxJobsActive, c.Timeout), contactHandler)
		}
		if c := notifyHandler.Config(); c.Enabled {
			workers.Start(sqn.TaskType, workerOptions(reg, sqn.TaskType, c.MaxJobsActive, c.Timeout), notifyHandler)
		}
		if emailHandler != nil && emailHandler.IsEnabled() {
			c := emailHandler.GetConfig()
			workers.Start(es.TaskType, workerOptions(reg, es.TaskType, c.MaxJobsActive, c.Timeout), emailHandler)
		}
		defer workers.Close()
	}

	// --- Domain services ---
	pipeline := quote.NewPipeline(quote.PipelineOptions{
		ProcessID: cfg.Camunda.ProcessID,
		Recorder:  recordStore,
		Process:   process,
		Leads:     leadHandler.Service(),
		Notifier:  notifyHandler.Service(),
		Obs:       obs,
		Logger:    log,
	})

	quoteCfg := quote.ConfigFromApp(cfg)
	quotes := quote.NewService(quoteCfg, quote.NewDraftStore(rdb.Client, quoteCfg.DraftTTL), pipeline, log)
	defer quotes.Close()

	sessionTTL := config.GetDuration(cfg.Auth.Session.TTL)
	sessions := session.NewManager(session.Options{
		Store:             session.NewStore(rdb.Client, sessionTTL),
		Tokens:            auth.NewTokenIssuer(cfg.Auth.Session.Secret, cfg.Auth.Session.Issuer, sessionTTL),
		Gate:              auth.NewGateFromConfig(cfg.Auth),
		GateEnabled:       cfg.Auth.Gate.Enabled,
		PreloaderDuration: config.GetDuration(cfg.Site.PreloaderDuration),
		Logger:            log,
	})

	catalog, err := content.LoadCatalog(cfg.Content.CatalogPath)
	if err != nil {
		zapLog.Fatal("content catalog failed", zap.Error(err), zap.String("path", cfg.Content.CatalogPath))
	}
	contentSvc := content.NewService(catalog, searcher, log)
	if esSearcher != nil {
		if n, err := contentSvc.Reindex(ctx, esSearcher); err != nil {
			zapLog.Warn("content reindex failed", zap.Error(err))
		} else {
			zapLog.Info("content indexed", zap.Int("items", n))
		}
	}

	var contactCRM contact.ContactSync
	if cfg.Integrations.Zoho.APIKey != "" {
		contactCRM = contactHandler.Service()
	}
	contactSvc := contact.NewService(contact.Options{
		DB:     pg.DB,
		Mailer: mailer,
		CRM:    contactCRM,
		Inbox:  cfg.Notifications.Email.ContactInbox,
		Logger: log,
	})

	// --- HTTP ---
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Options{
		SessionCookie:  cfg.Server.SessionCookie,
		CookieSecure:   cfg.Server.CookieSecure,
		SessionTTL:     sessionTTL,
		TrustedProxies: cfg.Server.TrustedProxies,
		Quotes:         quotes,
		Sessions:       sessions,
		Content:        contentSvc,
		Contact:        contactSvc,
		Site:           site.NewDirectory(cfg.Site),
		Ready: func(ctx context.Context) error {
			if err := pg.Ping(ctx); err != nil {
				return err
			}
			return rdb.Ping(ctx)
		},
		Logger: log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("Shutting down quote server...")
	case err := <-serverErr:
		zapLog.Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown failed", zap.Error(err))
	}
	zapLog.Info("Quote server stopped")
}
