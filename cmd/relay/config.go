package main

import (
	"chat-relay/errors"
	"chat-relay/internal"
	"fmt"
	"strconv"

	"github.com/Netflix/go-env"
)

func loadConfig(args []string) (internal.Config, error) {
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return config, err
	}
	if err := applyArgs(&config, args); err != nil {
		return config, err
	}
	return config, config.Validate()
}

// applyArgs overrides the port and the room name with the positional arguments.
func applyArgs(config *internal.Config, args []string) error {
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: invalid port %q", errors.ErrInvalidConfig, args[0])
		}
		config.Port = port
	}
	if len(args) > 1 {
		config.RoomName = args[1]
	}
	return nil
}
