package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tnrbusiness/outreach/internal/adapter"
	"github.com/tnrbusiness/outreach/internal/config"
	"github.com/tnrbusiness/outreach/internal/credential"
	"github.com/tnrbusiness/outreach/internal/crm"
	"github.com/tnrbusiness/outreach/internal/dispatch"
	"github.com/tnrbusiness/outreach/internal/domain"
	"github.com/tnrbusiness/outreach/internal/handler"
	"github.com/tnrbusiness/outreach/internal/infra/postgresql"
	"github.com/tnrbusiness/outreach/internal/infra/postgresql/migrations"
	infraredis "github.com/tnrbusiness/outreach/internal/infra/redis"
	"github.com/tnrbusiness/outreach/internal/infra/sqlite"
	"github.com/tnrbusiness/outreach/internal/notify"
	"github.com/tnrbusiness/outreach/internal/observability"
	"github.com/tnrbusiness/outreach/internal/queue"
	"github.com/tnrbusiness/outreach/internal/repository"
	"github.com/tnrbusiness/outreach/internal/service"
	"github.com/tnrbusiness/outreach/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	localDB, err := sqlite.NewSQLite(cfg.SqlitePath)
	if err != nil {
		logger.Fatal("sqlite initialization failed", zap.Error(err))
	}

	if err := sqlite.Migrate(localDB); err != nil {
		logger.Fatal("sqlite migrations failed", zap.Error(err))
	}

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer mq.Close()

	metrics := observability.NewMetrics()

	credRepo := repository.NewGormCredentialRepo(db)
	postRepo := repository.NewGormPostRepo(db)
	eventRepo := repository.NewGormEventRepo(db)
	remoteRecords := repository.NewGormRecordStore(db, domain.SourceRemote)
	localRecords := repository.NewGormRecordStore(localDB, domain.SourceLocal)

	credStore, err := credential.NewStore(credRepo, logger)
	if err != nil {
		logger.Fatal("credential store initialization failed", zap.Error(err))
	}

	registry, err := buildRegistry(credStore)
	if err != nil {
		logger.Fatal("adapter registry initialization failed", zap.Error(err))
	}
	credStore.SetRegistry(registry)

	exchanger, err := credential.NewExchanger(credStore, cfg.OAuthApps())
	if err != nil {
		logger.Fatal("oauth exchanger initialization failed", zap.Error(err))
	}

	router, err := dispatch.NewRouter(registry, limiter, logger, cfg.AdapterTimeout())
	if err != nil {
		logger.Fatal("dispatch router initialization failed", zap.Error(err))
	}
	router.SetMetrics(metrics)

	facade, err := crm.NewFacade(remoteRecords, localRecords, logger)
	if err != nil {
		logger.Fatal("persistence facade initialization failed", zap.Error(err))
	}
	facade.SetMetrics(metrics)

	var mailer notify.Mailer
	if cfg.MailEnabled() {
		mailer, err = notify.NewMailAPISender(notify.MailConfig{
			Endpoint:   cfg.MailAPIURL,
			ServiceID:  cfg.MailServiceID,
			TemplateID: cfg.MailTemplateID,
			UserKey:    cfg.MailUserKey,
			ToEmail:    cfg.NotificationEmail,
		})
		if err != nil {
			logger.Fatal("mail sender initialization failed", zap.Error(err))
		}
	} else {
		logger.Warn("mail delivery not configured, notifications will be recorded only")
	}

	publisher := queue.NewRabbitMQPublisher(mq)
	consumer := queue.NewRabbitMQConsumer(mq, cfg.WorkerPrefetch, logger)

	notifier, err := notify.NewNotifier(eventRepo, publisher, mailer, logger)
	if err != nil {
		logger.Fatal("notifier initialization failed", zap.Error(err))
	}
	notifier.SetMetrics(metrics)

	worker, err := notify.NewWorker(eventRepo, consumer, mailer, logger)
	if err != nil {
		logger.Fatal("notification worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	postService, err := service.NewPostService(postRepo, router, notifier, logger)
	if err != nil {
		logger.Fatal("post service initialization failed", zap.Error(err))
	}

	scheduler, err := service.NewScheduler(postRepo, postService, cfg.SchedulerInterval(), 0, logger)
	if err != nil {
		logger.Fatal("scheduler initialization failed", zap.Error(err))
	}
	scheduler.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterPostRoutes(app, postService); err != nil {
		logger.Fatal("post routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterRecordRoutes(app, facade, notifier); err != nil {
		logger.Fatal("record routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterLeadRoutes(app, facade, notifier); err != nil {
		logger.Fatal("lead routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterCredentialRoutes(app, credStore); err != nil {
		logger.Fatal("credential routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterOAuthRoutes(app, exchanger); err != nil {
		logger.Fatal("oauth routes registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("outreach api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		return scheduler.Start(gctx)
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return app.Shutdown()
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("api terminated", zap.Error(err))
	}
	logger.Info("outreach api stopped")
}

func buildRegistry(creds adapter.CredentialSource) (*adapter.Registry, error) {
	fb, err := adapter.NewFacebookAdapter(creds)
	if err != nil {
		return nil, err
	}
	ig, err := adapter.NewInstagramAdapter(creds)
	if err != nil {
		return nil, err
	}
	li, err := adapter.NewLinkedInAdapter(creds)
	if err != nil {
		return nil, err
	}
	tw, err := adapter.NewTwitterAdapter(creds)
	if err != nil {
		return nil, err
	}
	wa, err := adapter.NewWhatsAppAdapter(creds)
	if err != nil {
		return nil, err
	}
	wix, err := adapter.NewWixAdapter(creds)
	if err != nil {
		return nil, err
	}
	return adapter.NewRegistry(fb, ig, li, tw, wa, wix)
}
