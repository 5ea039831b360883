package di

import (
	"github.com/rs/zerolog"
	"github.com/samber/do/v2"

	"github.com/javer/aws-transcribe-streaming/internal/wirelog"
)

// LoggerService wraps the process-wide logger for DI.
type LoggerService struct {
	Logger zerolog.Logger
}

// NewLoggerService builds the structured logger shared by the transport
// driver and both pipelines.
func NewLoggerService(i do.Injector) (*LoggerService, error) {
	return &LoggerService{
		Logger: wirelog.New(wirelog.Options{Level: zerolog.InfoLevel}),
	}, nil
}
