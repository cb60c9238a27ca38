package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/meridian/backend/internal/config"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/flights"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/itinerary"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/nearby"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/places"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/server"
	"github.com/MarcoPoloResearchLab/meridian/backend/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "meridian-api",
		Short: "Meridian trip planner backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("flights-base-url", defaults.GetString("flights.base_url"), "Flight status API base URL")
	cmd.PersistentFlags().Float64("nearby-radius-km", defaults.GetFloat64("nearby.radius_km"), "Default nearby search radius in km")
	cmd.PersistentFlags().Float64("nearby-min-distance-km", defaults.GetFloat64("nearby.min_distance_km"), "Minimum candidate distance in km")
	cmd.PersistentFlags().Int("nearby-limit", defaults.GetInt("nearby.limit"), "Default nearby candidate limit")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "flights.base_url", "flights-base-url")
	bindFlag(cmd, "nearby.radius_km", "nearby-radius-km")
	bindFlag(cmd, "nearby.min_distance_km", "nearby-min-distance-km")
	bindFlag(cmd, "nearby.limit", "nearby-limit")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := storage.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	plannerStore, err := storage.NewPlannerStore(storage.StoreConfig{
		Database: db,
		Clock:    time.Now,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	registry, err := server.NewSessionRegistry(plannerStore, itinerary.NewUUIDProvider(), time.Now, logger)
	if err != nil {
		return err
	}

	catalog, err := places.NewCatalog(places.CatalogConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	engine := nearby.NewEngine(catalog, nearby.Config{
		RadiusKm:      appConfig.NearbyRadiusKm,
		MinDistanceKm: appConfig.NearbyMinDistanceKm,
		Limit:         appConfig.NearbyLimit,
	}, logger)

	var flightStatus server.FlightStatusProvider
	if appConfig.FlightStatusBaseURL != "" {
		client, err := flights.NewClient(flights.ClientConfig{
			BaseURL: appConfig.FlightStatusBaseURL,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		flightStatus = client
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Registry: registry,
		Nearby:   engine,
		Places:   catalog,
		Flights:  flightStatus,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
