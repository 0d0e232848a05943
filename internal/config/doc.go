// Package config loads and saves the publisher configuration.
//
// The configuration is a versioned YAML file. Command-line flags override
// the values it contains; anything left unset falls back to Default.
//
// # Configuration File Location
//
// The file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/dp/config.yaml or $HOME/.config/dp/config.yaml
//   - macOS: $HOME/.config/dp/config.yaml
//   - Windows: %LOCALAPPDATA%\dp\config.yaml
//
// # Example
//
//	version: 1
//	interface: eth0
//	device:
//	    name: discovery-app
//	    manufacturer: sparse
//	    model: discovery-protocol
//	    type: Basic
//	http:
//	    port: 0
//	    description_path: /
//	    presentation_port: 0
//	    presentation_path: /
//	advertise:
//	    cache_lifetime: 1
//	    poll_interval: 10s
//	    mdns: false
//
// A missing file is not an error; Load returns the defaults.
package config
