package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Financial-Times/http-mock-registry/fixtures"
	"github.com/Financial-Times/http-mock-registry/health"
	"github.com/Financial-Times/http-mock-registry/kafka"
	"github.com/Financial-Times/http-mock-registry/mock"
	"github.com/Financial-Times/http-mock-registry/server"
	"github.com/gorilla/mux"
	cli "github.com/jawher/mow.cli"
	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
)

const appDescription = "Stub HTTP server answering requests with queued canned responses"

func main() {
	app := cli.App("http-mock-server", appDescription)

	appSystemCode := app.String(cli.StringOpt{
		Name:   "app-system-code",
		Value:  "http-mock-server",
		Desc:   "System Code of the application",
		EnvVar: "APP_SYSTEM_CODE",
	})

	appName := app.String(cli.StringOpt{
		Name:   "app-name",
		Value:  "HTTP Mock Server",
		Desc:   "Application name",
		EnvVar: "APP_NAME",
	})

	port := app.String(cli.StringOpt{
		Name:   "port",
		Value:  "8080",
		Desc:   "Port to listen on",
		EnvVar: "APP_PORT",
	})

	ignoreQuery := app.Bool(cli.BoolOpt{
		Name:   "ignoreQuery",
		Value:  true,
		Desc:   "Match endpoints on host and path only. When false the full URL must match",
		EnvVar: "IGNORE_QUERY",
	})

	fixturesPath := app.String(cli.StringOpt{
		Name:   "fixtures",
		Desc:   "Path to a JSON file of mock responses to register at startup",
		EnvVar: "FIXTURES_PATH",
	})

	kafkaAddresses := app.String(cli.StringOpt{
		Name:   "kafkaAddresses",
		Desc:   "Comma separated list of Kafka broker addresses. Dispatch events are not published when empty",
		EnvVar: "KAFKA_ADDRESSES",
	})

	kafkaTopic := app.String(cli.StringOpt{
		Name:   "kafkaTopic",
		Value:  "MockDispatches",
		Desc:   "Kafka topic to send dispatch events to",
		EnvVar: "KAFKA_TOPIC",
	})

	logLevel := app.String(cli.StringOpt{
		Name:   "logLevel",
		Value:  "info",
		Desc:   "Level of logging to be shown",
		EnvVar: "LOG_LEVEL",
	})

	app.Before = func() {
		lvl, err := log.ParseLevel(*logLevel)
		if err != nil {
			log.Warnf("Log level %s could not be parsed, defaulting to info", *logLevel)
			lvl = log.InfoLevel
		}
		log.SetLevel(lvl)
		log.Infof("[Startup] %s is starting", *appSystemCode)
	}

	app.Action = func() {
		log.Infof("System code: %s, App Name: %s, Port: %s", *appSystemCode, *appName, *port)

		registry := mock.NewRegistry(mock.WithIgnoreQuery(*ignoreQuery))
		if *fixturesPath != "" {
			if _, err := fixtures.LoadFile(*fixturesPath, registry); err != nil {
				log.WithError(err).Fatal("Could not load fixtures")
			}
		}

		var opts []func(*server.Handler)
		var kafkaChecker health.ConnectivityChecker
		if *kafkaAddresses != "" {
			kf, err := kafka.NewPublisher(*kafkaAddresses, *kafkaTopic)
			if err != nil {
				log.WithError(err).WithField("kafkaAddresses", *kafkaAddresses).WithField("kafkaTopic", *kafkaTopic).Fatal("Error creating the Kafka producer")
			}
			defer kf.Shutdown()
			opts = append(opts, server.WithPublisher(kf))
			kafkaChecker = kf
		}

		handler := server.NewMockHandler(registry, opts...)
		healthService, err := health.NewHealthService(handler, kafkaChecker, &health.HealthServiceConfig{
			AppSystemCode: *appSystemCode,
			AppName:       *appName,
			Description:   appDescription,
		})
		if err != nil {
			log.WithError(err).Fatal("Could not initialise the health service")
		}

		router := mux.NewRouter()
		monitoringRouter := healthService.RegisterAdminEndpoints(router)
		handler.RegisterEndpoints(router)

		go func() {
			if err := http.ListenAndServe(":"+*port, monitoringRouter); err != nil {
				log.Fatalf("Unable to start: %v", err)
			}
		}()

		waitForSignal()
		log.Info("[Shutdown] http-mock-server is shutting down")
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Errorf("App could not start, error=[%s]\n", err)
		return
	}
}

func waitForSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
}
