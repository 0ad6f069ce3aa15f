// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"rsvp-workers/internal/admin"
	appaws "rsvp-workers/internal/common/aws"
	"rsvp-workers/internal/common/camunda"
	"rsvp-workers/internal/common/config"
	"rsvp-workers/internal/common/database"
	apphttp "rsvp-workers/internal/common/http"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/observability"
	"rsvp-workers/internal/common/sheets"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/confirmation"
	"rsvp-workers/internal/notification"
	"rsvp-workers/internal/participants"
	"rsvp-workers/internal/routes"
	"rsvp-workers/internal/store/postgres"
	"rsvp-workers/internal/templates"
	"rsvp-workers/pkg/registry"

	wa "rsvp-workers/internal/workers/administration/workflow-admin"
	sr "rsvp-workers/internal/workers/confirmation/submit-response"
	mt "rsvp-workers/internal/workers/notifications/manage-templates"
	rn "rsvp-workers/internal/workers/notifications/resend-notification"
	si "rsvp-workers/internal/workers/notifications/send-invites"
	sn "rsvp-workers/internal/workers/notifications/send-notification"
	ip "rsvp-workers/internal/workers/participants/import-participants"
	ir "rsvp-workers/internal/workers/routes/issue-route"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
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
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// workerTimeout returns the configured job timeout, falling back to def.
func workerTimeout(cfg *config.Config, taskType string, def time.Duration) time.Duration {
	if w, ok := cfg.Workers[taskType]; ok && w.Timeout > 0 {
		return config.GetDuration(w.Timeout)
	}
	return def
}

// instrument records a job counter and duration around every handled job.
func instrument(obs *observability.Observability, taskType string, h camunda.HandlerFunc) camunda.HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		h(client, job)
		ctx := context.Background()
		obs.RecordJobProcessed(ctx, taskType, "handled")
		obs.RecordJobDuration(ctx, taskType, time.Since(start), "handled")
	}
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	bootLog.Sync()

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClient(ctx, cfg.Camunda.BrokerAddress, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
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
	zapLog.Info("PostgreSQL connected successfully")

	store := postgres.New(pg.DB, log)
	if cfg.Database.Postgres.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}
		zapLog.Info("Schema migrated")
	}

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
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

	// --- Elasticsearch (optional delivery log) ---
	var deliveries notification.DeliveryLog
	if cfg.Database.Elasticsearch.Enabled() {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index := cfg.Database.Elasticsearch.DeliveryIndex
		if err := es.EnsureIndex(ctx, index); err != nil {
			zapLog.Fatal("delivery index setup failed", zap.Error(err), zap.String("index", index))
		}
		deliveries = notification.NewESDeliveryLog(es.Client, index)
		zapLog.Info("Elasticsearch delivery log enabled", zap.String("index", index))
	}

	// --- Relays ---
	webhookCfg := cfg.Notifications.Webhook
	var tokens notification.TokenProvider
	if webhookCfg.ClientID != "" {
		tokens = notification.NewClientCredentialsCache(&clientcredentials.Config{
			ClientID:     webhookCfg.ClientID,
			ClientSecret: webhookCfg.ClientSecret,
			TokenURL:     webhookCfg.TokenURL,
			Scopes:       webhookCfg.Scopes,
		})
	}
	httpClient := apphttp.NewClient(config.GetDuration(webhookCfg.Timeout),
		apphttp.WithUserAgent(cfg.App.Name+"/"+cfg.App.Version))
	var secondary []notification.Relay

	if cfg.Notifications.SMS.Enabled || cfg.Notifications.Email.Enabled {
		clients, err := appaws.NewClients(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws clients failed", zap.Error(err))
		}
		if cfg.Notifications.SMS.Enabled {
			secondary = append(secondary, notification.NewSMSRelay(clients.SNS, cfg.Notifications.SMS.SenderID))
		}
		if cfg.Notifications.Email.Enabled {
			secondary = append(secondary, notification.NewEmailRelay(clients.SES, cfg.Notifications.Email.FromEmail))
		}
	}
	relay := notification.NewMultiRelay(log,
		notification.NewWebhookRelay(webhookCfg.URL, httpClient, tokens), secondary...)

	// --- Domain services ---
	catalog := templates.NewCatalog(store, rdb.Client, config.GetDuration(cfg.Database.Redis.TemplateTTL), log)
	if n, err := catalog.SeedDefaults(ctx); err != nil {
		zapLog.Warn("template seeding failed", zap.Error(err))
	} else if n > 0 {
		zapLog.Info("Seeded default templates", zap.Int("count", n))
	}

	dispatchTimeout := config.GetDuration(cfg.Notifications.DispatchTimeout)
	dispatcher := notification.NewDispatcher(notification.Config{
		Timeout: dispatchTimeout,
		BaseURL: cfg.Event.BaseURL,
	}, catalog, store, relay, deliveries, log)

	issuer := routes.NewIssuer(store, log)
	workflow := confirmation.NewWorkflow(store, dispatcher, dispatchTimeout, log)
	importer := participants.NewImporter(store, issuer, log)
	adminSvc := admin.NewService(store, issuer, log)

	var sheet ip.RowSource
	if cfg.Import.SpreadsheetID != "" {
		client, err := sheets.New(ctx, cfg.Import.CredentialsFile, cfg.Import.SpreadsheetID)
		if err != nil {
			zapLog.Warn("spreadsheet source disabled", zap.Error(err))
		} else {
			sheet = client
		}
	}

	validator := validation.NewJobValidator(registry.Default())

	// --- Workers ---
	fleet := camunda.NewFleet(zeebe.GetClient(), log)
	start := func(taskType string, h camunda.HandlerFunc) {
		fleet.Start(taskType, config.GetWorkerConfig(cfg, taskType), instrument(obs, taskType, h))
	}

	{
		c := ir.LoadConfig()
		c.Timeout = workerTimeout(cfg, ir.TaskType, c.Timeout)
		start(ir.TaskType, ir.NewHandler(c, issuer, validator, log).Handle)
	}
	{
		c := sr.LoadConfig()
		c.Timeout = workerTimeout(cfg, sr.TaskType, c.Timeout)
		start(sr.TaskType, sr.NewHandler(c, workflow, validator, log).Handle)
	}
	{
		c := ip.LoadConfig()
		c.Timeout = workerTimeout(cfg, ip.TaskType, c.Timeout)
		c.SheetRange = cfg.Import.Range
		start(ip.TaskType, ip.NewHandler(c, importer, sheet, validator, log).Handle)
	}
	{
		c := si.LoadConfig()
		c.Timeout = workerTimeout(cfg, si.TaskType, c.Timeout)
		start(si.TaskType, si.NewHandler(c, dispatcher, store, validator, log).Handle)
	}
	{
		c := sn.LoadConfig()
		c.Timeout = workerTimeout(cfg, sn.TaskType, c.Timeout)
		start(sn.TaskType, sn.NewHandler(c, dispatcher, validator, log).Handle)
	}
	{
		c := rn.LoadConfig()
		c.Timeout = workerTimeout(cfg, rn.TaskType, c.Timeout)
		start(rn.TaskType, rn.NewHandler(c, dispatcher, validator, log).Handle)
	}
	{
		c := mt.LoadConfig()
		c.Timeout = workerTimeout(cfg, mt.TaskType, c.Timeout)
		start(mt.TaskType, mt.NewHandler(c, catalog, validator, log).Handle)
	}
	{
		c := wa.LoadConfig()
		c.Timeout = workerTimeout(cfg, wa.TaskType, c.Timeout)
		c.AllowReset = cfg.App.Environment != "production"
		start(wa.TaskType, wa.NewHandler(c, adminSvc, validator, log).Handle)
	}
	zapLog.Info("Workers registered", zap.Strings("taskTypes", fleet.TaskTypes()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status, code := "ready", http.StatusOK
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			status, code = "broker unavailable", http.StatusServiceUnavailable
		} else if err := pg.Ping(r.Context()); err != nil {
			status, code = "database unavailable", http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	srv := &http.Server{Addr: cfg.App.HealthAddr, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.HealthAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fleet.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
