package health

import (
	"errors"
	"fmt"
	"net/http"

	fthealth "github.com/Financial-Times/go-fthealth/v1_1"
	"github.com/Financial-Times/http-handlers-go/httphandlers"
	"github.com/Financial-Times/service-status-go/gtg"
	status "github.com/Financial-Times/service-status-go/httphandlers"
	"github.com/gorilla/mux"
	"github.com/rcrowley/go-metrics"
	log "github.com/sirupsen/logrus"
)

const (
	businessImpact = "Tests relying on the mock server will fail to get their canned responses"
	panicGuideURL  = "https://runbooks.in.ft.com/http-mock-server"
)

// EndpointCounter reports how many endpoints have mock responses registered.
type EndpointCounter interface {
	EndpointCount() int
}

type ConnectivityChecker interface {
	ConnectivityCheck() error
}

// HealthService is responsible for gtg and health checks.
type HealthService struct {
	config    *HealthServiceConfig
	endpoints EndpointCounter
	kafka     ConnectivityChecker
	Checks    []fthealth.Check
}

type HealthServiceConfig struct {
	AppSystemCode string
	AppName       string
	Description   string
}

func (c *HealthServiceConfig) Validate() error {
	if c.AppSystemCode == "" {
		return errors.New("property AppSystemCode is required")
	}
	if c.AppName == "" {
		return errors.New("property AppName is required")
	}
	if c.Description == "" {
		return errors.New("property Description is required")
	}
	return nil
}

// NewHealthService builds the checks. kafka may be nil when dispatch events are not published.
func NewHealthService(endpoints EndpointCounter, kafka ConnectivityChecker, config *HealthServiceConfig) (*HealthService, error) {
	err := config.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	service := &HealthService{
		config:    config,
		endpoints: endpoints,
		kafka:     kafka,
	}
	service.Checks = []fthealth.Check{
		service.mockResponsesCheck(),
	}
	if kafka != nil {
		service.Checks = append(service.Checks, service.kafkaHealthCheck())
	}
	return service, nil
}

// RegisterAdminEndpoints adds the admin endpoints to the given router and returns it wrapped in
// request logging and metrics.
func (hs *HealthService) RegisterAdminEndpoints(router *mux.Router) http.Handler {
	router.HandleFunc("/__health", fthealth.Handler(hs.HealthcheckHandler()))
	router.HandleFunc(status.GTGPath, status.NewGoodToGoHandler(hs.GtgCheck()))
	router.HandleFunc(status.BuildInfoPath, status.BuildInfoHandler)

	var monitoringRouter http.Handler = router
	monitoringRouter = httphandlers.TransactionAwareRequestLoggingHandler(log.StandardLogger(), monitoringRouter)
	monitoringRouter = httphandlers.HTTPMetricsHandler(metrics.DefaultRegistry, monitoringRouter)

	return monitoringRouter
}

func (hs *HealthService) HealthcheckHandler() fthealth.HealthCheck {
	return fthealth.HealthCheck{
		SystemCode:  hs.config.AppSystemCode,
		Name:        hs.config.AppName,
		Description: hs.config.Description,
		Checks:      hs.Checks,
	}
}

func (hs *HealthService) mockResponsesCheck() fthealth.Check {
	return fthealth.Check{
		BusinessImpact:   businessImpact,
		Name:             "Check that mock responses are registered",
		PanicGuide:       panicGuideURL,
		Severity:         2,
		TechnicalSummary: `No endpoint has a mock response. Check the fixtures file or register responses through /__mock/responses.`,
		Checker:          hs.checkMockResponses,
	}
}

func (hs *HealthService) kafkaHealthCheck() fthealth.Check {
	return fthealth.Check{
		BusinessImpact:   "Dispatch events will not be published",
		Name:             "Check connectivity to Kafka",
		PanicGuide:       panicGuideURL,
		Severity:         3,
		TechnicalSummary: `Cannot connect to Kafka. Verify that Kafka is healthy in this cluster.`,
		Checker:          hs.checkKafkaConnectivity,
	}
}

func (hs *HealthService) checkMockResponses() (string, error) {
	n := hs.endpoints.EndpointCount()
	if n == 0 {
		msg := "no mock responses are registered"
		log.Warn(msg)
		return msg, errors.New(msg)
	}
	return fmt.Sprintf("%d endpoints have mock responses", n), nil
}

func (hs *HealthService) checkKafkaConnectivity() (string, error) {
	err := hs.kafka.ConnectivityCheck()
	if err != nil {
		clientError := "Error verifying open connection to Kafka"
		log.WithError(err).Error(clientError)
		return "Error connecting with Kafka", errors.New(clientError)
	}
	return "Successfully connected to Kafka", nil
}

// GtgCheck is responsible for __gtg endpoint.
func (hs *HealthService) GtgCheck() gtg.StatusChecker {
	var sc []gtg.StatusChecker
	for _, c := range hs.Checks {
		sc = append(sc, gtgCheck(c.Checker))
	}

	return gtg.FailFastParallelCheck(sc)
}

func gtgCheck(handler func() (string, error)) gtg.StatusChecker {
	return func() gtg.Status {
		if _, err := handler(); err != nil {
			return gtg.Status{GoodToGo: false, Message: err.Error()}
		}
		return gtg.Status{GoodToGo: true}
	}
}
