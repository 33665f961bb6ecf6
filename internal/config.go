package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Session SessionConfig     `yaml:"session"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	return c.Session.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SessionConfig holds canvas session (room) configuration.
//
// EmptyRoomGraceSeconds is how long an empty room's canvas survives after its
// last participant disconnects; 0 discards it immediately. SendBuffer is the
// per-connection outbound queue length; a participant that falls further
// behind than this is dropped.
type SessionConfig struct {
	EmptyRoomGraceSeconds int `yaml:"empty_room_grace_seconds"`
	SendBuffer            int `yaml:"send_buffer"`
}

// EmptyRoomGrace returns the grace window as a duration.
func (c *SessionConfig) EmptyRoomGrace() time.Duration {
	return time.Duration(c.EmptyRoomGraceSeconds) * time.Second
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.EmptyRoomGraceSeconds, validation.Min(0), validation.Max(24*3600)),
		validation.Field(&c.SendBuffer, validation.Required, validation.Min(1), validation.Max(4096)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Session: SessionConfig{
			EmptyRoomGraceSeconds: 30,
			SendBuffer:            32,
		},
	}
}
