package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"audio-archive/config"
	"audio-archive/constant"
	"audio-archive/handler"
	"audio-archive/pkg/objectstore"
	"audio-archive/pkg/rabbitmq"
	"audio-archive/repository"
	"audio-archive/service"
)

var (
	entityDeletedBinding = rabbitmq.Binding{
		Exchange:   "entity_events_exchange",
		Queue:      "archive_entity_deleted_queue",
		RoutingKey: "entity.deleted",
	}
	vocalizationRenamedBinding = rabbitmq.Binding{
		Exchange:   "entity_events_exchange",
		Queue:      "archive_vocalization_renamed_queue",
		RoutingKey: "vocalization.renamed",
	}
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(SetupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Bool("isProduction", cfg.App.Environment == constant.EnvironmentProduction.String()).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("NewRabbitMQConn")
	}

	repo := repository.NewRepo(cfg.DB)
	store := objectstore.NewMinioStore(cfg.Storage, cfg.MinIOBucket)
	archive := service.New(repo, store, cfg)

	serviceDeps := handler.ServiceDependencies{
		Archive: archive,
	}

	// Entity deletions must not be lost: retried with backoff, then
	// dead-lettered.
	deleteConsumer := rabbitmq.NewCascadeConsumer(conn, cfg.Queue, entityDeletedBinding, cfg.Server.Workers, handler.EntityDeletedHandler)
	go func() {
		if err := deleteConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("entity deleted consumer error")
		}
	}()

	renameConsumer := rabbitmq.NewConsumer(conn, cfg.Queue, vocalizationRenamedBinding, cfg.Server.Workers, handler.VocalizationRenamedHandler)
	go func() {
		if err := renameConsumer.Consume(ctx, serviceDeps); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("vocalization renamed consumer error")
		}
	}()

	r := gin.Default()
	addHealth(r)
	handler.NewHTTP(archive).Register(r)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Msg("server shutdown")
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

// SetupLogger installs the process logger into a fresh context. Also used
// by the reconcile command.
func SetupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
