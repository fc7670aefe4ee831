package main

import "time"

// Config defines the client-side environment variables.
type Config struct {
	LogLevel    string        `env:"LOG_LEVEL,default=WARN"`
	Colours     bool          `env:"CHAT_COLOURS,default=true"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT,default=5s"`
}
