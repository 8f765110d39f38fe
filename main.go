// File: slotbook/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/config"
	"slotbook/cron"
	"slotbook/database"
	appointmentRepo "slotbook/database/repository/appointment"
	providerRepo "slotbook/database/repository/provider"
	serviceRepo "slotbook/database/repository/service"
	"slotbook/handlers"
	"slotbook/middleware"
	"slotbook/routes"
	"slotbook/services/booking"
	"slotbook/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitHoldCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	svcRepo := serviceRepo.NewMongoServiceRepo()
	provRepo := providerRepo.NewMongoProviderRepo()
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()

	// core services.
	clk := booking.SystemClock{}
	holdStore := booking.NewRedisHoldStore(
		utils.GetHoldCacheClient(),
		clk,
		config.AppConfig.HoldDefaultTTLSeconds,
		config.AppConfig.HoldMaxTTLSeconds,
	)
	availabilityEngine := &booking.DefaultAvailabilityEngine{
		ServiceRepo:      svcRepo,
		ProviderRepo:     provRepo,
		AppointmentRepo:  apptRepo,
		Clock:            clk,
		DefaultRangeDays: config.AppConfig.DefaultRangeDays,
		MaxRangeDays:     config.AppConfig.MaxRangeDays,
	}
	coordinator := &booking.DefaultBookingCoordinator{
		ServiceRepo:     svcRepo,
		AppointmentRepo: apptRepo,
		Holds:           holdStore,
		Clock:           clk,
		Sweeper:         cron.NewAsynqExpiryScheduler(),
	}

	// background expiry sweep.
	cron.InitExpiryWorker(holdStore, apptRepo)

	// health monitoring.
	utils.StartHealthMonitor([]*redis.Client{utils.GetHoldCacheClient()}, database.MongoClient)

	bookingHandler := handlers.NewBookingHandler(coordinator, availabilityEngine, logger)
	routes.RegisterRoutes(router, bookingHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
