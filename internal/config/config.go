package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database" validate:"required"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Services     ServicesConfig     `mapstructure:"services" validate:"required"`
	IDGen        IDGenConfig        `mapstructure:"idgen" validate:"required"`
	Workflow     WorkflowConfig     `mapstructure:"workflow" validate:"required"`
	Notification NotificationConfig `mapstructure:"notification" validate:"required"`
	Validation   ValidationConfig   `mapstructure:"validation" validate:"required"`
	Task         TaskConfig         `mapstructure:"task" validate:"required"`
	Auth         AuthConfig         `mapstructure:"auth"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// RedisConfig configures the optional workflow process-id cache.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db" validate:"gte=0"`
	ProcessCacheTTL time.Duration `mapstructure:"process_cache_ttl" validate:"gte=0"`
}

// ServicesConfig holds the base URLs of the DIGIT platform services.
type ServicesConfig struct {
	IDGenHost        string        `mapstructure:"idgen_host" validate:"required,url"`
	BoundaryHost     string        `mapstructure:"boundary_host" validate:"required,url"`
	FileStoreHost    string        `mapstructure:"filestore_host" validate:"required,url"`
	WorkflowHost     string        `mapstructure:"workflow_host" validate:"required,url"`
	NotificationHost string        `mapstructure:"notification_host" validate:"required,url"`
	AccountHost      string        `mapstructure:"account_host" validate:"required,url"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// RetryOn5xx enables a single retry when a service answers with a 5xx status.
	RetryOn5xx bool `mapstructure:"retry_on_5xx"`
}

// IDGenConfig configures request id generation.
type IDGenConfig struct {
	TemplateCode string `mapstructure:"template_code" validate:"required"`
	OrgCode      string `mapstructure:"org_code" validate:"required"`
}

// WorkflowConfig configures the workflow process used for service requests.
type WorkflowConfig struct {
	ProcessCode   string `mapstructure:"process_code" validate:"required"`
	CreateAction  string `mapstructure:"create_action" validate:"required"`
	CreateComment string `mapstructure:"create_comment"`
	UpdateComment string `mapstructure:"update_comment"`
}

// NotificationConfig configures citizen notifications.
type NotificationConfig struct {
	EmailTemplateID string `mapstructure:"email_template_id" validate:"required"`
	SMSTemplateID   string `mapstructure:"sms_template_id"`
	Version         string `mapstructure:"version" validate:"required"`
	TrackURLBase    string `mapstructure:"track_url_base" validate:"required,url"`
	SMSEnabled      bool   `mapstructure:"sms_enabled"`
}

// ValidationConfig selects how failed boundary/file checks affect creation.
type ValidationConfig struct {
	Policy string `mapstructure:"policy" validate:"required,oneof=strict lenient"`
}

// TaskConfig contains settings for the background notification runner.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`
	QueueSize   int `mapstructure:"queue_size" validate:"required,gt=0"`
}

// AuthConfig contains bearer token settings. PublicKey verifies RS256
// tokens such as those issued by Keycloak; JWTSecret verifies HS256 tokens.
// With neither set, tokens are parsed without signature verification.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"omitempty,min=32"`
	PublicKey string `mapstructure:"public_key" validate:"omitempty,excluded_with=JWTSecret"`
}
