package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/easycab-sim/central/core/broadcast"
	"github.com/easycab-sim/central/core/metrics"
	"github.com/easycab-sim/central/infra/authgate"
	"github.com/easycab-sim/central/infra/mqtt"
	"github.com/easycab-sim/central/infra/store"
)

// Config is the full coordinator configuration.
type Config struct {
	MQTT    mqtt.Config      `json:"mqtt"`
	Auth    authgate.Config  `json:"auth"`
	Data    store.Config     `json:"data"`
	Map     broadcast.Config `json:"map"`
	Metrics MetricsConfig    `json:"metrics"`
}

// MetricsConfig wraps the sink list with the exposition server address.
type MetricsConfig struct {
	metrics.Config `json:",squash"`
	PrometheusPort string `json:"prometheus_port"`
}

// Load reads the configuration file (yaml or json) and applies EC_
// environment overrides (EC_MQTT__BROKER maps to mqtt.broker).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("EC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ec_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Data.SetDefaults()
	cfg.Map.SetDefaults()
	cfg.Auth.SetDefaults()
	return &cfg, nil
}

// Validate checks the two mandatory startup parameters: the broker
// address and the authentication listen port.
func (c *Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}
