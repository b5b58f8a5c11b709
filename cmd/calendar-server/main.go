package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"github.com/mycalender/calendar-backend/internal/alarm"
	"github.com/mycalender/calendar-backend/internal/api"
	events_service "github.com/mycalender/calendar-backend/internal/business/events"
	"github.com/mycalender/calendar-backend/internal/calendar"
	"github.com/mycalender/calendar-backend/internal/config"
	"github.com/mycalender/calendar-backend/internal/database"
	"github.com/mycalender/calendar-backend/internal/database/events"
	"github.com/mycalender/calendar-backend/internal/dispatch"
	"github.com/mycalender/calendar-backend/internal/pkg/jwt"
	"github.com/mycalender/calendar-backend/internal/pkg/push"
	"github.com/mycalender/calendar-backend/internal/pkg/speech"
	"github.com/mycalender/calendar-backend/internal/redis"
	"github.com/mycalender/calendar-backend/internal/reminder"
	"github.com/robfig/cron/v3"
	"github.com/xlab/closer"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	closer.Bind(cancel)

	logger, err := initLogger()
	if err != nil {
		log.Fatalf("unable to initialize logger: %v", err)
	}

	loc, err := referenceLocation()
	if err != nil {
		logger.Fatalw("unable to resolve reference timezone", "err", err)
	}
	clk := clock.New()

	jwts := jwt.NewManger(config.Secret(), config.JwtTTL())

	redisPool := redis.NewRedisPool(logger)
	refreshTokens := redis.NewRefreshTokenRepository(redisPool, logger)
	deliveryLog := redis.NewDeliveryLogRepository(redisPool, logger)

	db, err := database.NewPGX(ctx)
	if err != nil {
		logger.Fatalw("unable to initialize db", "err", err)
	}
	if err := database.Setup(ctx, db); err != nil {
		logger.Fatalw("unable to set up db schema", "err", err)
	}

	listener := database.NewListener(db, logger)
	eventsRepository := events.NewRepository()
	eventsService := events_service.NewService(db, logger, eventsRepository, listener)

	pushService, err := push.NewService(ctx, config.DevicePushToken())
	if err != nil {
		logger.Fatalw("unable to initialize push service", "err", err)
	}
	if err := pushService.EnsureChannel(ctx); err != nil {
		logger.Errorw("push delivery unavailable", "err", err)
	}

	speaker := dispatch.NewSpeech(logger, speech.NewEngine(logger, config.SpeechCommand(), config.SpeechLanguage()))

	dispatcher := dispatch.NewDispatcher(logger, pushService, pushService, pushService, speaker, deliveryLog)
	alarms := alarm.NewService(logger, clk, config.AlarmSweepPeriod(), dispatcher.HandleAlarm)

	scheduler := reminder.NewScheduler(alarms, eventsService, loc, clk, logger)
	if err := scheduler.RearmAll(ctx); err != nil {
		logger.Errorw("unable to rearm alarms at startup", "err", err)
	}

	viewModel := calendar.New(ctx, logger, eventsService, clk, loc)

	crons := cron.New(cron.WithLocation(loc))
	if _, err := crons.AddFunc("@midnight", func() {
		if err := scheduler.RearmAll(ctx); err != nil {
			logger.Errorw("nightly rearm failed", "err", err)
		}
	}); err != nil {
		logger.Fatalw("unable to schedule nightly rearm", "err", err)
	}
	if config.DigestTime() != "" {
		digest := reminder.NewDigest(eventsService, pushService, loc, clk, logger)
		spec, err := digestCronSpec(config.DigestTime())
		if err != nil {
			logger.Fatalw("invalid digest time", "value", config.DigestTime(), "err", err)
		}
		if _, err := crons.AddFunc(spec, func() { digest.Send(ctx) }); err != nil {
			logger.Fatalw("unable to schedule daily digest", "err", err)
		}
	}
	crons.Start()
	closer.Bind(func() { crons.Stop() })

	apiHandler, err := api.NewApi(
		logger,
		rand.Reader,
		config.Password(),
		config.SessionTokenLength(),
		jwts,
		refreshTokens,
		eventsService,
		viewModel,
		scheduler,
	)
	if err != nil {
		logger.Fatalw("unable to initialize api", "err", err)
	}

	errLogger, err := zap.NewStdLogAt(logger.Desugar(), zap.ErrorLevel)
	if err != nil {
		logger.Fatalw("error initiating server logger", "err", err)
	}

	server := &http.Server{
		Addr:     ":" + config.Port(),
		Handler:  apiHandler,
		ErrorLog: errLogger,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return listener.Run(gCtx) })
	g.Go(func() error { alarms.Run(gCtx); return nil })
	g.Go(func() error {
		logger.Infow("Started server", "port", config.Port())
		return server.ListenAndServe()
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Fatalw("server error", "err", g.Wait())
}

func initLogger() (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if config.Production() {
		logger, err = zap.NewProduction()
	} else {
		conf := zap.NewDevelopmentConfig()
		conf.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err = conf.Build()
	}

	if err != nil {
		return nil, err
	}

	closer.Bind(func() {
		_ = logger.Sync()
	})

	return logger.Sugar(), nil
}

// referenceLocation resolves the zone event times are interpreted in:
// the fixed reference zone by default, the host zone when configured.
func referenceLocation() (*time.Location, error) {
	if config.UseProcessTimezone() {
		return time.Local, nil
	}

	return time.LoadLocation(config.ReferenceTimezone())
}

// digestCronSpec turns an "HH:MM" wall time into a daily cron spec.
func digestCronSpec(at string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(at))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}
