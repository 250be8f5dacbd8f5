package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"thermostat_control/internal/handlers"
	"thermostat_control/internal/logger"
	"thermostat_control/internal/mqtt"
	"thermostat_control/internal/repository"
	"thermostat_control/internal/server"
	"thermostat_control/internal/service"
	"thermostat_control/internal/thermostat"

	"github.com/spf13/viper"
)

const defaultSimTick = 1 * time.Second

// @title        Thermostat Control API
// @version      1.0
// @description  Deadband thermostat controller with equipment-protection interlocks.

// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	// load config.yml first so the log level can come from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(viper.GetString("log_level"))

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// build the controller from the configured mode, setpoints and interlocks
	ctrl, err := thermostat.New(controllerConfig())
	if err != nil {
		log.Fatalw("invalid controller configuration", "err", err)
	}

	// actuation boundary (optional)
	actuator, closeActuator, err := openActuator(log)
	if err != nil {
		log.Fatalw("failed to connect to mqtt broker", "err", err)
	}
	defer closeActuator()

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos, ctrl, actuator, viper.GetString("auth.signing_key"))
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start simulator unless a real sensor pushes samples over HTTP
	if viper.GetBool("simulator.enabled") {
		tick := viper.GetDuration("simulator.tick")
		if tick <= 0 {
			tick = defaultSimTick
		}
		log.WithComponent("simulator").Infow("starting sample simulator", "tick", tick)
		go services.Simulator.Run(ctx, tick)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// controllerConfig maps the control section of config.yml onto the
// controller's configuration. Validation happens in thermostat.New.
func controllerConfig() thermostat.Config {
	mode, err := thermostat.ParseOperatingMode(viper.GetString("control.mode"))
	if err != nil {
		mode = thermostat.ModeOff
	}
	cfg := thermostat.Config{
		Mode: mode,
		Setpoints: thermostat.Setpoints{
			HeatTo: viper.GetFloat64("control.heat_to"),
			CoolTo: viper.GetFloat64("control.cool_to"),
		},
		Deadband:             viper.GetFloat64("control.deadband"),
		StageEscalationAfter: viper.GetDuration("control.stage_escalation_after"),
		MaxStage:             uint8(viper.GetUint("control.max_stage")),
		MinSafeTemp:          viper.GetFloat64("control.min_safe_temp"),
		MaxSafeTemp:          viper.GetFloat64("control.max_safe_temp"),
	}
	cfg.Interlocks[thermostat.ChannelCompressor] = interlockFromConfig("control.interlocks.compressor")
	cfg.Interlocks[thermostat.ChannelHeatElement] = interlockFromConfig("control.interlocks.heat_element")
	cfg.Interlocks[thermostat.ChannelFan] = interlockFromConfig("control.interlocks.fan")
	return cfg
}

func interlockFromConfig(key string) thermostat.InterlockConfig {
	return thermostat.InterlockConfig{
		MinRun: viper.GetDuration(key + ".min_run"),
		MinOff: viper.GetDuration(key + ".min_off"),
	}
}

// openActuator connects to the MQTT broker when actuation is enabled.
// With actuation disabled the control service runs without a publisher
// and transitions are only logged and persisted.
func openActuator(log *logger.Logger) (service.Actuator, func(), error) {
	if !viper.GetBool("mqtt.enabled") {
		log.WithComponent("mqtt").Infow("actuation disabled; transitions will not be published")
		return nil, func() {}, nil
	}
	act, err := mqtt.NewActuator(
		viper.GetString("mqtt.broker"),
		viper.GetString("mqtt.client_id"),
		viper.GetString("mqtt.topic"),
	)
	if err != nil {
		return nil, nil, err
	}
	log.WithComponent("mqtt").Infow("connected to broker", "broker", viper.GetString("mqtt.broker"))
	return act, func() {
		if cerr := act.Close(); cerr != nil {
			log.WithComponent("mqtt").Errorw("failed to close mqtt client", "err", cerr)
		}
	}, nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "thermostat.db")
		dbPath = "thermostat.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
