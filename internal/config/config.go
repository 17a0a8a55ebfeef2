// Package config provides application configuration structures and helpers.
package config

import (
	"errors"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"
)

// ClientConfig holds the connection settings for the VictoriaMetrics client.
// It is built once at startup and not mutated afterwards.
type ClientConfig struct {
	ServerAddr    string // VictoriaMetrics base URL (must include http(s)://)
	Username      string // Basic auth user
	Password      string // Basic auth password
	ClientTimeout int    // HTTP client timeout (in seconds)
}

// Validate reports whether the configuration is usable.
func (cfg *ClientConfig) Validate() error {
	if cfg.ServerAddr == "" {
		return errors.New("server address is required")
	}
	if cfg.ClientTimeout <= 0 {
		return errors.New("client timeout must be positive")
	}
	return nil
}

// NewClientConfig creates and returns a new ClientConfig by parsing flags,
// an optional JSON config file, and environment variables.
func NewClientConfig() *ClientConfig {
	cfg := &ClientConfig{
		ServerAddr:    "http://localhost:8428",
		ClientTimeout: 10,
	}

	var fAddr, fUser, fPass, fConf strFlag
	var fTO intFlag
	flag.Var(&fAddr, "a", "VictoriaMetrics address (must include http(s)://)")
	flag.Var(&fUser, "u", "basic auth user")
	flag.Var(&fPass, "p", "basic auth password")
	flag.Var(&fTO, "t", "client timeout (seconds)")
	flag.Var(&fConf, "c", "Path to JSON config file")
	flag.Var(&fConf, "config", "Path to JSON config file (alias)")
	flag.Parse()

	if fAddr.set {
		cfg.ServerAddr = fAddr.v
	}
	if fUser.set {
		cfg.Username = fUser.v
	}
	if fPass.set {
		cfg.Password = fPass.v
	}
	if fTO.set {
		cfg.ClientTimeout = fTO.v
	}

	if fConf.v == "" {
		if v := os.Getenv("CONFIG"); v != "" {
			fConf.v = v
		}
	}
	if fConf.v != "" {
		if js, err := loadClientJSON(fConf.v); err == nil {
			if js.Address != nil && !fAddr.set {
				cfg.ServerAddr = *js.Address
			}
			if js.Username != nil && !fUser.set {
				cfg.Username = *js.Username
			}
			if js.Password != nil && !fPass.set {
				cfg.Password = *js.Password
			}
			if js.Timeout != nil && !fTO.set {
				if sec, err := parseDurationSeconds(*js.Timeout); err == nil {
					cfg.ClientTimeout = sec
				}
			}
		}
	}

	readClientEnvironment(cfg)

	// normalize address
	if !strings.HasPrefix(cfg.ServerAddr, "http://") && !strings.HasPrefix(cfg.ServerAddr, "https://") {
		cfg.ServerAddr = "http://" + cfg.ServerAddr
	}
	cfg.ServerAddr = strings.TrimRight(cfg.ServerAddr, "/")
	return cfg
}

func readClientEnvironment(cfg *ClientConfig) {
	if addr := os.Getenv("ADDRESS"); addr != "" {
		cfg.ServerAddr = addr
	}

	if user := os.Getenv("VM_USER"); user != "" {
		cfg.Username = user
	}

	if pass := os.Getenv("VM_PASS"); pass != "" {
		cfg.Password = pass
	}

	timeoutEnv := os.Getenv("CLIENT_TIMEOUT")
	if timeoutEnv != "" {
		v, err := strconv.Atoi(timeoutEnv)
		if err == nil {
			cfg.ClientTimeout = v
		} else {
			log.Printf("invalid CLIENT_TIMEOUT env var: %v", err)
		}
	}
}
