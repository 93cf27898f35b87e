package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Server describes a connection target. Loaded from the server inventory
// file and read-only afterwards.
type Server struct {
	Id             string `yaml:"id"`
	Name           string `yaml:"name"`
	Country        string `yaml:"country"`
	ApiUrl         string `yaml:"api_url"`
	ApiToken       string `yaml:"api_token"`
	ProbeEndpoint  string `yaml:"probe_endpoint,omitempty"`
	RetryAttempts  int    `yaml:"retry_attempts"`
	RetryDelayMs   int    `yaml:"retry_delay_ms"`
	TimeoutMs      int    `yaml:"timeout_ms"`
	Enabled        bool   `yaml:"enabled"`
	TestCredential string `yaml:"test_credential,omitempty"`
}

func (s *Server) RetryDelay() time.Duration {
	if s.RetryDelayMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(s.RetryDelayMs) * time.Millisecond
}

func (s *Server) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

type serverInventory struct {
	Servers []Server `yaml:"servers"`
}

// LoadServers reads the server inventory. Disabled entries are kept so the
// API can list them; callers check Enabled before connecting.
func LoadServers(path string) ([]Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read servers file: %w", err)
	}
	var inv serverInventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("parse servers file: %w", err)
	}
	for i := range inv.Servers {
		if inv.Servers[i].ApiUrl == "" {
			return nil, fmt.Errorf("server %q has no api_url", inv.Servers[i].Name)
		}
	}
	return inv.Servers, nil
}
