package main

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerAddr string `envconfig:"PAIRCHAT_SERVER_ADDR" default:"localhost:8080"`
	// PAIRCHAT_COLOURS enables colorized output
	Colours bool `envconfig:"PAIRCHAT_COLOURS" default:"true"`
	// PAIRCHAT_DEBUG logs every call with its status code and latency
	Debug bool `envconfig:"PAIRCHAT_DEBUG" default:"false"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
