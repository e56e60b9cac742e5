package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Mongo    MongoConfig    `json:"mongo"`
	Mail     MailConfig     `json:"mail"`
	AutoSend AutoSendConfig `json:"auto_send"`
	Logging  LoggingConfig  `json:"logging"`
}

// Duration unmarshals from either a Go duration string ("15s", "2m30s") or a
// plain nanosecond count, so config files stay readable.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(n)
	return nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
	IdleTimeout  Duration `json:"idle_timeout"`
}

// MongoConfig represents MongoDB connection configuration
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// MailConfig represents outbound mail configuration
type MailConfig struct {
	FromName    string   `json:"from_name"`
	FromEmail   string   `json:"from_email"`
	AWSRegion   string   `json:"aws_region"`
	SendTimeout Duration `json:"send_timeout"`
}

// AutoSendConfig represents the auto-send sweep configuration
type AutoSendConfig struct {
	Schedule           string   `json:"schedule"`
	SweepTimeout       Duration `json:"sweep_timeout"`
	MaxConcurrentSends int      `json:"max_concurrent_sends"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Defaults
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "feedback_portal",
		},
		Mail: MailConfig{
			FromName:  "Feedback Portal",
			FromEmail: "no-reply@feedback-portal.local",
		},
		AutoSend: AutoSendConfig{
			Schedule:           "@every 1m",
			MaxConcurrentSends: 4,
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		config.Mongo.URI = uri
	}
	if db := os.Getenv("MONGO_DATABASE"); db != "" {
		config.Mongo.Database = db
	}
	if name := os.Getenv("MAIL_FROM_NAME"); name != "" {
		config.Mail.FromName = name
	}
	if email := os.Getenv("MAIL_FROM_EMAIL"); email != "" {
		config.Mail.FromEmail = email
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		config.Mail.AWSRegion = region
	}
	if schedule := os.Getenv("AUTO_SEND_SCHEDULE"); schedule != "" {
		config.AutoSend.Schedule = schedule
	}
	if sends := os.Getenv("AUTO_SEND_MAX_CONCURRENT"); sends != "" {
		if n, err := strconv.Atoi(sends); err == nil && n > 0 {
			config.AutoSend.MaxConcurrentSends = n
		}
	}
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
