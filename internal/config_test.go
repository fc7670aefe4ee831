package internal

import (
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)

	// Given an empty environment
	var config Config
	err := env.Unmarshal(env.EnvSet{}, &config)
	req.NoError(err)

	// Then every default is usable as is
	req.NoError(config.Validate())
	req.Equal(8080, config.Port)
	req.Equal("Basic Chat Room", config.RoomName)
	req.Equal(10*time.Second, config.HandshakeTimeout)
	req.Equal(5*time.Second, config.WriteTimeout)
	req.Zero(config.MaxContentLength)
	req.Equal("*", config.CharReplacement)
	req.Empty(config.DebugAddr)
	req.Equal(":8080", config.Address())
}

func TestConfig_From_Environment(t *testing.T) {
	req := require.New(t)

	var config Config
	err := env.Unmarshal(env.EnvSet{
		"LOG_LEVEL":          "DEBUG",
		"HOST":               "127.0.0.1",
		"PORT":               "9000",
		"ROOM_NAME":          "Ops",
		"WRITE_TIMEOUT":      "250ms",
		"MAX_CONTENT_LENGTH": "280",
		"DEBUG_ADDR":         "localhost:6060",
	}, &config)
	req.NoError(err)

	req.NoError(config.Validate())
	req.Equal("127.0.0.1:9000", config.Address())
	req.Equal("Ops", config.RoomName)
	req.Equal(250*time.Millisecond, config.WriteTimeout)
	req.Equal(280, config.MaxContentLength)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			LogLevel:          "INFO",
			Port:              8080,
			RoomName:          "Room",
			CharReplacement:   "*",
			HeartbeatInterval: time.Second,
			RestartInterval:   time.Second,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "Unknown log level", mutate: func(c *Config) { c.LogLevel = "LOUD" }},
		{name: "Port out of range", mutate: func(c *Config) { c.Port = 70000 }},
		{name: "Empty room name", mutate: func(c *Config) { c.RoomName = "" }},
		{name: "Negative content length", mutate: func(c *Config) { c.MaxContentLength = -1 }},
		{name: "Replacement is a word", mutate: func(c *Config) { c.CharReplacement = "**" }},
		{name: "Debug address without port", mutate: func(c *Config) { c.DebugAddr = "localhost" }},
		{name: "Zero heartbeat", mutate: func(c *Config) { c.HeartbeatInterval = 0 }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)
			require.ErrorIs(t, config.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestCharacterRune(t *testing.T) {
	req := require.New(t)

	r, err := CharacterRune("€")
	req.NoError(err)
	req.Equal('€', r)

	_, err = CharacterRune("")
	req.Error(err)
}
