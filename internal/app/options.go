package app

import "go.uber.org/zap"

type serviceConfig struct {
	logger *zap.Logger
}

// Option configures a service.
type Option func(*serviceConfig)

// WithLogger injects a structured logger. Services log nothing by default.
func WithLogger(l *zap.Logger) Option {
	return func(c *serviceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func newServiceConfig(opts []Option) serviceConfig {
	cfg := serviceConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
