package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/trainops/workshop-portal/internal/activity"
	"github.com/trainops/workshop-portal/internal/azure"
	"github.com/trainops/workshop-portal/internal/config"
	"github.com/trainops/workshop-portal/internal/db"
	"github.com/trainops/workshop-portal/internal/logging"
	"github.com/trainops/workshop-portal/internal/metrics"
	"github.com/trainops/workshop-portal/internal/workflow"
)

const taskQueue = "workshop-tasks"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg, "worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cred, err := azure.NewCredential(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build azure credential")
	}

	tlsConfig, err := cfg.TemporalTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal TLS")
	}
	dialOpts := temporalclient.Options{HostPort: cfg.TemporalAddress}
	if tlsConfig != nil {
		dialOpts.ConnectionOptions = temporalclient.ConnectionOptions{TLS: tlsConfig}
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	w := worker.New(tc, taskQueue, worker.Options{})

	// Register activities
	storeActivities := activity.NewStore(pool)
	w.RegisterActivity(storeActivities)

	ledgerActivities := activity.NewLedger(pool)
	w.RegisterActivity(ledgerActivities)

	allocatorActivities := activity.NewAllocator(pool, azure.NewSubscriptions(cred), cfg.DeploymentSubscriptionID)
	w.RegisterActivity(allocatorActivities)

	identityActivities := activity.NewIdentity(azure.NewGraph(cred), cfg.EntraDomain, cfg.UsageLocation)
	w.RegisterActivity(identityActivities)

	resourceActivities := activity.NewResource(azure.NewResources(cred), azure.NewPolicy(cred), cfg.ParticipantRole)
	w.RegisterActivity(resourceActivities)

	mailer := azure.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	if !mailer.Enabled() {
		logger.Warn().Msg("smtp not configured, credential mail delivery disabled")
	}
	emailActivities := activity.NewEmail(mailer)
	w.RegisterActivity(emailActivities)

	defaultsActivities := activity.NewDefaults(cfg.ResourceGroupPrefix, cfg.DefaultRegion)
	w.RegisterActivity(defaultsActivities)

	// Register workflows
	w.RegisterWorkflow(workflow.WorkshopProvisionWorkflow)
	w.RegisterWorkflow(workflow.CreateWorkshopWorkflow)
	w.RegisterWorkflow(workflow.ProvisionParticipantWorkflow)
	w.RegisterWorkflow(workflow.DeleteWorkshopWorkflow)
	w.RegisterWorkflow(workflow.RetryDeletionWorkflow)
	w.RegisterWorkflow(workflow.CleanupExpiredWorkshopsWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", taskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	// Register cron schedules. Errors for already-existing schedules are
	// ignored so that re-deploys do not fail.
	registerCronSchedules(ctx, tc, taskQueue, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

type cronSchedule struct {
	id       string
	cron     string
	workflow interface{}
	args     []interface{}
}

func registerCronSchedules(ctx context.Context, tc temporalclient.Client, taskQueue string, logger zerolog.Logger) {
	schedules := []cronSchedule{
		{
			// 17:00 UTC is 02:00 KST, after the workshop day ends.
			id:       "workshop-cleanup-cron",
			cron:     "0 17 * * *",
			workflow: workflow.CleanupExpiredWorkshopsWorkflow,
		},
	}

	scheduleClient := tc.ScheduleClient()

	for _, s := range schedules {
		_, err := scheduleClient.Create(ctx, temporalclient.ScheduleOptions{
			ID: s.id,
			Spec: temporalclient.ScheduleSpec{
				CronExpressions: []string{s.cron},
			},
			Action: &temporalclient.ScheduleWorkflowAction{
				ID:        s.id,
				Workflow:  s.workflow,
				Args:      s.args,
				TaskQueue: taskQueue,
			},
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") || strings.Contains(err.Error(), "AlreadyExists") || strings.Contains(err.Error(), "already registered") {
				logger.Info().Str("id", s.id).Msg("cron schedule already exists, skipping")
			} else {
				logger.Fatal().Err(err).Str("id", s.id).Msg("failed to create cron schedule")
			}
		} else {
			logger.Info().Str("id", s.id).Str("cron", s.cron).Msg("created cron schedule")
		}
	}
}
