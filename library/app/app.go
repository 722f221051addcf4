package app

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/library-management/library/config"
	"github.com/Astemirdum/library-management/library/internal/handler"
	"github.com/Astemirdum/library-management/library/internal/queue"
	"github.com/Astemirdum/library-management/library/internal/repository"
	"github.com/Astemirdum/library-management/library/internal/server"
	"github.com/Astemirdum/library-management/library/internal/service"
	"github.com/Astemirdum/library-management/library/migrations"
	"github.com/Astemirdum/library-management/pkg/circuit_breaker"
	"github.com/Astemirdum/library-management/pkg/dedup"
	"github.com/Astemirdum/library-management/pkg/kafka"
	"github.com/Astemirdum/library-management/pkg/logger"
	"github.com/Astemirdum/library-management/pkg/postgres"
)

const shutdownTimeout = 5 * time.Second

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	defer db.Close()
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	var publisher service.EventPublisher = queue.Noop{}
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		p := queue.NewPublisher(producer, circuit_breaker.New(circuit_breaker.DefaultConfig()), kafka.RentalEventsTopic, log)
		defer func() {
			if err := p.Close(); err != nil {
				log.Error("producer close", zap.Error(err))
			}
		}()
		publisher = p
	} else {
		log.Warn("kafka is not configured, rental events are not published")
	}

	rentalSvc := service.NewRental(repo, log,
		service.WithLoanPeriod(cfg.Rental.LoanPeriod),
		service.WithPublisher(publisher),
	)
	h := handler.New(
		service.NewCatalog(repo, log),
		rentalSvc,
		service.NewAudit(repo, log),
		service.NewUsers(repo, log),
		log,
	)

	gg, ctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() {
		var deduper handler.CommandDeduper
		if cfg.Redis.Enabled() {
			client, err := dedup.NewClient(ctx, cfg.Redis)
			if err != nil {
				log.Fatal("redis init", zap.Error(err))
			}
			defer client.Close()
			deduper = dedup.NewChecker(client, kafka.RentalCommandsTopic, cfg.Redis.TTL)
		} else {
			log.Warn("redis is not configured, rental commands are not deduplicated")
		}
		group, err := kafka.NewConsumer(cfg.Kafka, kafka.LibraryConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		consumer := handler.NewConsumer(rentalSvc, deduper, log)
		gg.Go(func() error {
			defer group.Close()
			return kafka.Consume(ctx, group, consumer, kafka.RentalCommandsTopic)
		})
	}

	if cfg.Rental.SweepInterval > 0 {
		gg.Go(func() error {
			return rentalSvc.SweepOverdue(ctx, cfg.Rental.SweepInterval)
		})
	}

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	gg.Go(srv.Run)
	gg.Go(func() error {
		<-ctx.Done()
		log.Debug("Graceful shutdown")
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := gg.Wait(); err != nil {
		log.Error("library stopped", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}
