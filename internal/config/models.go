package config

import (
	"time"

	"github.com/google/uuid"

	"github.com/sparse/dp/internal/device"
)

// CurrentVersion is the only file version understood.
const CurrentVersion = 1

// Config is the whole configuration file.
type Config struct {
	Version   int             `yaml:"version"`
	Interface string          `yaml:"interface"`
	Device    DeviceConfig    `yaml:"device"`
	HTTP      HTTPConfig      `yaml:"http"`
	Advertise AdvertiseConfig `yaml:"advertise"`
	LogLevel  string          `yaml:"log_level,omitempty"`
}

// DeviceConfig describes the announced device.
type DeviceConfig struct {
	UUID         string `yaml:"uuid,omitempty"` // generated per run when empty
	Name         string `yaml:"name"`
	Description  string `yaml:"description,omitempty"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	Type         string `yaml:"type,omitempty"` // short name or full URN
}

// HTTPConfig places the description document and presentation page.
type HTTPConfig struct {
	Port             int    `yaml:"port"` // 0 picks a free port
	DescriptionPath  string `yaml:"description_path"`
	PresentationPort int    `yaml:"presentation_port"` // 0 omits the port
	PresentationPath string `yaml:"presentation_path"`
}

// AdvertiseConfig controls announcement timing.
type AdvertiseConfig struct {
	CacheLifetime int           `yaml:"cache_lifetime"` // minutes
	PollInterval  time.Duration `yaml:"poll_interval"`
	MDNS          bool          `yaml:"mdns"`
}

// Default returns the built-in configuration. Interface is left empty and
// must be supplied.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Device: DeviceConfig{
			Name:         "discovery-app",
			Manufacturer: "sparse",
			Model:        "discovery-protocol",
		},
		HTTP: HTTPConfig{
			DescriptionPath:  "/",
			PresentationPath: "/",
		},
		Advertise: AdvertiseConfig{
			CacheLifetime: 1,
			PollInterval:  10 * time.Second,
		},
	}
}

// DeviceInfo returns the device identity, generating a random UUID when
// none is configured.
func (c *Config) DeviceInfo() device.Info {
	id := c.Device.UUID
	if id == "" {
		id = uuid.NewString()
	}
	return device.Info{
		UUID:             id,
		FriendlyName:     c.Device.Name,
		Manufacturer:     c.Device.Manufacturer,
		ModelName:        c.Device.Model,
		ModelDescription: c.Device.Description,
		DeviceType:       c.Device.Type,
	}
}

// Endpoint returns the URL layout for a description server bound to
// serverPort.
func (c *Config) Endpoint(serverPort int) device.Endpoint {
	return device.Endpoint{
		Port:             serverPort,
		LocationPath:     c.HTTP.DescriptionPath,
		PresentationPort: c.HTTP.PresentationPort,
		PresentationPath: c.HTTP.PresentationPath,
	}
}

// CacheLifetime is the advertised max-age.
func (c *Config) CacheLifetime() time.Duration {
	return time.Duration(c.Advertise.CacheLifetime) * time.Minute
}

// PollInterval is how often the interface address is checked.
func (c *Config) PollInterval() time.Duration {
	return c.Advertise.PollInterval
}
