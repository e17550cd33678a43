package main

import (
	"context"
	"net/http"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/dstroumpakos/escape-app-sub001/internal/app"
	"github.com/dstroumpakos/escape-app-sub001/internal/config"
	"github.com/dstroumpakos/escape-app-sub001/internal/constants"
	"github.com/dstroumpakos/escape-app-sub001/internal/controllers"
	"github.com/dstroumpakos/escape-app-sub001/internal/metrics"
	"github.com/dstroumpakos/escape-app-sub001/internal/mq"
	"github.com/dstroumpakos/escape-app-sub001/internal/repositories"
	"github.com/dstroumpakos/escape-app-sub001/internal/services"
	"github.com/dstroumpakos/escape-app-sub001/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize booking service:", err)
	}
	defer application.Close()

	metrics.Register()

	roomRepo := repositories.NewRoomRepository(application.DB)
	overrideRepo := repositories.NewSlotOverrideRepository(application.DB)
	bookingRepo := repositories.NewBookingRepository(application.DB)
	ledgerRepo := repositories.NewBookingLedgerRepository(application.DB)
	watchRepo := repositories.NewSlotWatchRepository(application.DB)
	outboxRepo := repositories.NewOutboxRepository(application.DB)
	operatorRepo := repositories.NewOperatorRepository(application.DB)

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), operatorRepo, roomRepo); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to seed test data")
		} else {
			utils.Logger.Info("Seeded test data successfully")
		}
	}

	var rateLimitRepo repositories.RateLimitRepository
	if cfg.RedisAddr != "" {
		redisClient := repositories.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		if err := repositories.PingRedis(context.Background(), redisClient); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		rateLimitRepo = repositories.NewRedisRateLimitRepository(redisClient, cfg.AppName)
	} else {
		utils.Logger.Warn("REDIS_ADDR not set; guest booking rate limit disabled")
	}

	var publisher services.EventPublisher
	if cfg.AMQPUrl != "" {
		p, err := mq.NewPublisher(cfg.AMQPUrl, cfg.AMQPExchange)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to connect to RabbitMQ")
		}
		defer p.Close()
		publisher = p
	} else {
		utils.Logger.Warn("AMQP_URL not set; slot.freed events stay in the outbox")
	}

	slotWatchService := services.NewSlotWatchService(watchRepo, roomRepo, ledgerRepo, cfg.SlotWatchRetention)
	bookingService := services.NewBookingService(roomRepo, bookingRepo, ledgerRepo, slotWatchService)
	availabilityService := services.NewAvailabilityService(roomRepo, overrideRepo, bookingRepo)
	roomService := services.NewRoomService(roomRepo, overrideRepo)
	authService := services.NewOperatorAuthService(operatorRepo, cfg.RSAPrivateKey)
	rateLimiter := services.NewRateLimiterService(
		rateLimitRepo, cfg.GuestBookingsPerIPPerHour, constants.GuestBookingRateLimitWindow,
	)
	relayService := services.NewOutboxRelayService(outboxRepo, publisher)
	maintenanceService := services.NewBookingMaintenanceService(roomRepo, bookingRepo)

	router := controllers.NewRouter(controllers.Controllers{
		Health:       controllers.NewHealthController(application.DB, cfg.AppName),
		Availability: controllers.NewAvailabilityController(availabilityService),
		Booking:      controllers.NewBookingController(bookingService),
		Widget:       controllers.NewWidgetController(bookingService, slotWatchService, rateLimiter),
		SlotWatch:    controllers.NewSlotWatchController(slotWatchService),
		Operator:     controllers.NewOperatorController(authService, bookingService, roomService),
	}, cfg.RSAPublicKey, promhttp.Handler())

	c := cron.New()
	if _, err := c.AddFunc("@every 30s", func() {
		if _, e := relayService.RunRelay(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Outbox relay failed")
		}
	}); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule outbox relay cron")
	}
	if _, err := c.AddFunc("CRON_TZ=UTC 10 0 * * *", func() {
		if _, e := maintenanceService.RunDailyCompletion(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled completion sweep failed")
		}
	}); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule completion sweep cron")
	}
	if _, err := c.AddFunc("CRON_TZ=UTC 30 3 * * *", func() {
		if _, e := slotWatchService.Cleanup(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled slot watch cleanup failed")
		}
	}); err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule slot watch cleanup cron")
	}
	c.Start()
	defer c.Stop()

	allowedOrigins := []string{"*"}
	if cfg.AppUrl != "" {
		allowedOrigins = []string{cfg.AppUrl}
		if !cfg.LDFlag_CORSHighSecurity {
			allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
		}
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: cfg.AppUrl != "",
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("booking service failed to start:", err)
	}
}
