package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/sparse/dp/internal/device"
	"github.com/sparse/dp/internal/logging"
)

var (
	ErrInterfaceRequired = errors.New("a network interface is required")
	ErrInvalidPort       = errors.New("port must be between 0 and 65535")
	ErrReservedPath      = errors.New("path is reserved")
	ErrInvalidUUID       = errors.New("uuid must not contain whitespace or \"::\"")
	ErrInvalidLifetime   = errors.New("cache lifetime must be between 1 and 1440 minutes")
	ErrInvalidInterval   = errors.New("poll interval must be at least one second")
	ErrInvalidLogLevel   = errors.New("unknown log level")
	ErrNameRequired      = errors.New("device name is required")
)

// reservedPaths are served by the description server itself.
var reservedPaths = []string{"/metrics", "/ws"}

// ValidationError reports which field is invalid.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Validate checks c and returns the first problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Interface) == "" {
		return invalid("interface", ErrInterfaceRequired)
	}
	if strings.TrimSpace(c.Device.Name) == "" {
		return invalid("device.name", ErrNameRequired)
	}
	if id := c.Device.UUID; id != "" && (strings.Contains(id, "::") || strings.IndexFunc(id, unicode.IsSpace) >= 0) {
		return invalid("device.uuid", ErrInvalidUUID)
	}

	if !validPort(c.HTTP.Port) {
		return invalid("http.port", ErrInvalidPort)
	}
	if !validPort(c.HTTP.PresentationPort) {
		return invalid("http.presentation_port", ErrInvalidPort)
	}
	path := device.NormalizePath(c.HTTP.DescriptionPath)
	for _, reserved := range reservedPaths {
		if path == reserved {
			return invalid("http.description_path", fmt.Errorf("%w: %s", ErrReservedPath, path))
		}
	}

	if c.Advertise.CacheLifetime < 1 || c.Advertise.CacheLifetime > 1440 {
		return invalid("advertise.cache_lifetime", ErrInvalidLifetime)
	}
	if c.Advertise.PollInterval < time.Second {
		return invalid("advertise.poll_interval", ErrInvalidInterval)
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return invalid("log_level", fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel))
		}
	}
	return nil
}

func validPort(p int) bool {
	return p >= 0 && p <= 65535
}
