package searchbridge

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	configPath string

	addrs     []string
	transport http.RoundTripper
	fixture   string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithConfigFile reads classes, indexes and connection settings from a
// searchbridge YAML file. Required.
func WithConfigFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.configPath = path
	})
}

// WithElastic overrides the engine addresses of the config file.
func WithElastic(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
	})
}

// WithTransport sets the HTTP transport used to reach the engine.
func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = rt
	})
}

// WithFixture reads records from a YAML fixture instead of the configured
// record source.
func WithFixture(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.fixture = path
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
