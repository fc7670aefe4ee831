package internal

import (
	"chat-relay/errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config is the relay server configuration, read from the environment.
type Config struct {
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	Host              string        `env:"HOST"`
	Port              int           `env:"PORT,default=8080" validate:"gte=0,lte=65535"`
	RoomName          string        `env:"ROOM_NAME,default=Basic Chat Room" validate:"required"`
	HandshakeTimeout  time.Duration `env:"HANDSHAKE_TIMEOUT,default=10s" validate:"gte=0"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=5s" validate:"gte=0"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=0" validate:"gte=0"`
	CensoredDir       string        `env:"CENSORED_DIR"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	DebugAddr         string        `env:"DEBUG_ADDR" validate:"omitempty,hostname_port"`
	HealthPort        int           `env:"HEALTH_PORT,default=0" validate:"gte=0,lte=65535"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,default=30s" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s" validate:"gt=0"`
}

// Validate checks the configuration once the environment and the command
// line arguments have been applied.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err)
	}
	return nil
}

// Address is the TCP address the relay listens on.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
