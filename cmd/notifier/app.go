package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-event-notifier/internal/application/notification"
	"github.com/go-event-notifier/internal/config"
	"github.com/go-event-notifier/internal/infrastructure/dynamo"
	"github.com/go-event-notifier/internal/infrastructure/kafka"
	s3infra "github.com/go-event-notifier/internal/infrastructure/s3"
	"github.com/go-event-notifier/internal/infrastructure/sns"
	"github.com/go-event-notifier/internal/pkg/geo"
)

// app is the wired notifier shared by the run and serve commands.
type app struct {
	cfg    *config.Config
	svc    notification.Service
	loc    *time.Location
	logger *slog.Logger
	close  func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	districts := geo.DefaultTable
	if cfg.Notify.DistrictTablePath != "" {
		if districts, err = geo.LoadTable(cfg.Notify.DistrictTablePath); err != nil {
			return nil, err
		}
	}

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	sender, closeSink, err := newSender(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sender = sns.WithBreaker(cfg.SinkKind(), sender, cfg.Breaker, logger)

	deps := notification.ServiceDeps{
		Events:      dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events),
		Users:       dynamo.NewProfileRepo(dynamoClient, cfg.DynamoTables.Profiles),
		Ledger:      dynamo.NewLedgerRepo(dynamoClient, cfg.DynamoTables.Notifications),
		Sink:        sender,
		Districts:   districts,
		Location:    loc,
		HorizonDays: cfg.Notify.HorizonDays,
		Workers:     cfg.Notify.Workers,
		SinkTimeout: cfg.Notify.SinkTimeout,
		Logger:      logger,
	}
	if cfg.Archive.Enabled {
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load AWS config for S3: %w", err)
		}
		deps.Archive = s3infra.NewRunArchive(s3Client, cfg.S3BucketName, cfg.Archive.Prefix)
	}

	logger.Info("notifier configured",
		"sink", cfg.SinkKind(),
		"district_table", districts.Version,
		"timezone", loc.String(),
		"horizon_days", cfg.Notify.HorizonDays,
		"workers", cfg.Notify.Workers,
		"archive", cfg.Archive.Enabled,
	)

	return &app{cfg: cfg, svc: notification.NewService(deps), loc: loc, logger: logger, close: closeSink}, nil
}

func newSender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sns.Sender, func() error, error) {
	noop := func() error { return nil }
	switch kind := cfg.SinkKind(); kind {
	case "sns":
		if cfg.SNSTopicARN == "" {
			return nil, nil, fmt.Errorf("NOTIFY_SINK=sns requires SNS_TOPIC_ARN")
		}
		client, err := sns.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config for SNS: %w", err)
		}
		return sns.NewTopicSender(client, cfg.SNSTopicARN), noop, nil
	case "kafka":
		s, err := kafka.NewSender(cfg.Sink.KafkaBrokers, cfg.Sink.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case "log":
		logger.Warn("no delivery sink configured, notifications will only be logged")
		return sns.NewLogSender(logger), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown NOTIFY_SINK %q", kind)
	}
}
