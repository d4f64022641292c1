package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "PGR"

var defaults = map[string]any{
	"server.port":                    8080,
	"server.log_level":               "info",
	"server.shutdown_timeout":        10 * time.Second,
	"database.url":                   "",
	"database.max_open_conns":        10,
	"database.max_idle_conns":        5,
	"database.conn_max_lifetime":     5 * time.Minute,
	"redis.addr":                     "",
	"redis.password":                 "",
	"redis.db":                       0,
	"redis.process_cache_ttl":        10 * time.Minute,
	"services.idgen_host":            "http://localhost:8100",
	"services.boundary_host":         "http://localhost:8101",
	"services.filestore_host":        "http://localhost:8102",
	"services.workflow_host":         "http://localhost:8103",
	"services.notification_host":     "http://localhost:8104",
	"services.account_host":          "http://localhost:8105",
	"services.timeout":               10 * time.Second,
	"services.retry_on_5xx":          true,
	"idgen.template_code":            "pgr.servicerequest.id",
	"idgen.org_code":                 "pgr",
	"workflow.process_code":          "PGR67",
	"workflow.create_action":         "APPLY",
	"workflow.create_comment":        "Complaint submitted",
	"workflow.update_comment":        "Updating service request",
	"notification.email_template_id": "my-template-new",
	"notification.sms_template_id":   "",
	"notification.version":           "v1",
	"notification.track_url_base":    "https://pgr.digit.org/track",
	"notification.sms_enabled":       false,
	"validation.policy":              "lenient",
	"task.worker_count":              2,
	"task.queue_size":                100,
	"auth.jwt_secret":                "",
	"auth.public_key":                "",
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory and PGR_-prefixed environment variables, in increasing
// order of precedence. The result is validated before it is returned.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
