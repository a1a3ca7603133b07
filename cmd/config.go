package main

import (
	"strings"
	"time"
)

type Config struct {
	LogLevel         string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath   string        `env:"BADGER_FILEPATH"`
	BadgerInMemory   bool          `env:"BADGER_IN_MEMORY,default=false"`
	GRPCHost         string        `env:"GRPC_HOST,default=localhost"`
	GRPCPort         int           `env:"GRPC_PORT,default=8080"`
	HTTPHost         string        `env:"HTTP_HOST,default=localhost"`
	HTTPPort         int           `env:"HTTP_PORT,default=5000"`
	DebugPort        int           `env:"DEBUG_PORT,default=8081"`
	MaxContentLength int           `env:"MAX_CONTENT_LENGTH,default=4096"`
	RestartInterval  time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	MetricInterval   time.Duration `env:"METRIC_INTERVAL,default=5s"`
	AllowedOrigins   string        `env:"ALLOWED_ORIGINS,default=http://localhost:5173|http://localhost:3000"`
}

// Origins splits ALLOWED_ORIGINS on '|'.
func (c Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, "|") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
