package bootstrap

import (
	"github.com/openshelf/catalog/common/config"
	"github.com/openshelf/catalog/common/logger"
	"github.com/redis/go-redis/v9"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipDB        bool
	skipQueue     bool
	skipCache     bool
	skipTelemetry bool
	customLogger  *logger.Logger
	customConfig  *config.Config
	redisClient   *redis.Client
}

// WithoutDB skips database initialization
func WithoutDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// WithoutQueue skips queue initialization
func WithoutQueue() Option {
	return func(o *options) {
		o.skipQueue = true
	}
}

// WithoutCache skips cache initialization
func WithoutCache() Option {
	return func(o *options) {
		o.skipCache = true
	}
}

// WithoutTelemetry skips telemetry initialization
func WithoutTelemetry() Option {
	return func(o *options) {
		o.skipTelemetry = true
	}
}

// WithLogger supplies a pre-built logger
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = l
	}
}

// WithConfig supplies a pre-built config instead of loading from env
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithRedisClient supplies a shared Redis client for the redis queue type
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) {
		o.redisClient = client
	}
}

func defaultOptions() *options {
	return &options{}
}
