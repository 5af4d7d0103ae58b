package prom

import (
	"errors"
	"fmt"
	"sync"

	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemRates         = "rates"
	SystemShipments     = "shipments"
	SystemNotifications = "notifications"
)

const (
	MetricQuotesTotal             = "quotes_total"
	MetricBookingsTotal           = "bookings_total"
	MetricTrackingLookupsTotal    = "tracking_lookups_total"
	MetricStatusTransitionsTotal  = "status_transitions_total"
	MetricDeliveryDurationSeconds = "delivery_duration_seconds"
	MetricNotificationsTotal      = "sent_total"
)

const (
	TypeCounterVec   = "counterVec"
	TypeHistogramVec = "histogramVec"
)

var lockCreateMetricLock = &sync.Mutex{}
var namespace = "none"

var MetricSystemEnabled = false

var MetricCollectionCounterVec = make(map[string]*prometheus.CounterVec)
var MetricCollectionHistogramVec = make(map[string]*prometheus.HistogramVec)

var defaultLabels prometheus.Labels

// Create registers every collector the service reports. Until it is
// called all Add*/Inc* helpers are no-ops.
func Create(host string, env string, nameSpace string) error {
	defaultLabels = prometheus.Labels{
		"env":      env,
		"instance": host,
	}
	namespace = nameSpace
	MetricSystemEnabled = true

	var err error
	hasError := func(e error) {
		if err == nil && e != nil {
			err = e
		}
	}

	hasError(CreateMetric(TypeCounterVec, SystemRates, MetricQuotesTotal, "option", "outcome"))
	hasError(CreateMetric(TypeCounterVec, SystemShipments, MetricBookingsTotal, "outcome"))
	hasError(CreateMetric(TypeCounterVec, SystemShipments, MetricTrackingLookupsTotal, "outcome"))
	hasError(CreateMetric(TypeCounterVec, SystemShipments, MetricStatusTransitionsTotal, "status"))
	hasError(CreateMetric(TypeHistogramVec, SystemShipments, MetricDeliveryDurationSeconds, "option"))
	hasError(CreateMetric(TypeCounterVec, SystemNotifications, MetricNotificationsTotal, "kind", "outcome"))

	return err
}

func CreateMetric(metricType, metricSubsystem, metricName string, labels ...string) error {
	switch metricType {
	case TypeCounterVec:
		return createCounterVec(metricSubsystem, metricName, labels)
	case TypeHistogramVec:
		return createHistogramVec(metricSubsystem, metricName, labels)
	}
	return fmt.Errorf("metric type %s is not defined", metricType)
}

func ListenAndServer(addr string, url string) {
	hh := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s := xhttp.CreateServer()
	s.GET(url, hh)
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func createCounterVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
	}, labels)
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		c = are.ExistingCollector.(*prometheus.CounterVec)
	}
	MetricCollectionCounterVec[subsystem+name] = c
	return nil
}

func createHistogramVec(subsystem, name string, labels []string) error {
	lockCreateMetricLock.Lock()
	defer lockCreateMetricLock.Unlock()
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        name,
		ConstLabels: defaultLabels,
		// one hour up to two weeks
		Buckets: prometheus.ExponentialBuckets(3600, 2, 9),
	}, labels)
	if err := prometheus.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return err
		}
		h = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	MetricCollectionHistogramVec[subsystem+name] = h
	return nil
}

func AddCounterVec(subsystem, name string, num float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	lockCreateMetricLock.Lock()
	v, ok := MetricCollectionCounterVec[subsystem+name]
	lockCreateMetricLock.Unlock()
	if ok {
		v.WithLabelValues(labelValues...).Add(num)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func IncCounterVec(subsystem, name string, labelValues ...string) {
	AddCounterVec(subsystem, name, 1, labelValues...)
}

func AddHistogramVec(subsystem, name string, number float64, labelValues ...string) {
	if !MetricSystemEnabled {
		return
	}
	lockCreateMetricLock.Lock()
	v, ok := MetricCollectionHistogramVec[subsystem+name]
	lockCreateMetricLock.Unlock()
	if ok {
		v.WithLabelValues(labelValues...).Observe(number)
		return
	}
	logger.Warn("[metrics-server] histogram vec not found", "subsystem", subsystem, "name", name)
}

func IncQuote(option, outcome string) {
	IncCounterVec(SystemRates, MetricQuotesTotal, option, outcome)
}

func IncBooking(outcome string) {
	IncCounterVec(SystemShipments, MetricBookingsTotal, outcome)
}

func IncTrackingLookup(outcome string) {
	IncCounterVec(SystemShipments, MetricTrackingLookupsTotal, outcome)
}

func IncStatusTransition(status string) {
	IncCounterVec(SystemShipments, MetricStatusTransitionsTotal, status)
}

func AddDeliveryDuration(seconds float64, option string) {
	AddHistogramVec(SystemShipments, MetricDeliveryDurationSeconds, seconds, option)
}

func IncNotification(kind, outcome string) {
	IncCounterVec(SystemNotifications, MetricNotificationsTotal, kind, outcome)
}
