package ports

import "go.trai.ch/blitz/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(err error)
}

// LogSink is implemented by loggers whose destinations are chosen after the config is loaded.
type LogSink interface {
	// Configure applies the level and opens the extra destinations.
	Configure(cfg domain.LogConfig) error
	// Close releases any destination opened by Configure.
	Close() error
}
