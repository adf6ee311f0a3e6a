package util

import (
	"errors"
	"fmt"
	_ "github.com/joho/godotenv/autoload"
	"log"
	"os"
	"strconv"
	"time"
)

type configValue struct {
	envVarName   string
	required     bool
	errorMessage string
	defaultValue string
	Value        string
}

func (v configValue) Duration() (time.Duration, error) {
	d, err := time.ParseDuration(v.Value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s is not a valid duration: %w", v.envVarName, err)
	}

	return d, nil
}

func (v configValue) Int() (int, error) {
	i, err := strconv.Atoi(v.Value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s is not a valid integer: %w", v.envVarName, err)
	}

	return i, nil
}

type Config struct {
	DbConnectionString   configValue
	Environment          configValue
	LogLevel             configValue
	SeqUrl               configValue
	SeqToken             configValue
	DevtoolsWebsocketUrl configValue
	GeminiApiKey         configValue
	GeminiModel          configValue
	WorkerCount          configValue
	FetchTimeout         configValue
	FetchRetryCount      configValue
	JobTimeout           configValue
	ScrapeSchedule       configValue
	SyncSchedule         configValue
}

func NewConfig() *Config {
	const dbConnectionStringName = "DB_CONNECTION_STRING"

	return &Config{
		DbConnectionString: configValue{
			envVarName:   dbConnectionStringName,
			required:     true,
			errorMessage: fmt.Sprintf("make sure that environment variable %s is set and in DSN format", dbConnectionStringName),
		},
		Environment:          configValue{envVarName: "ENVIRONMENT", defaultValue: "development"},
		LogLevel:             configValue{envVarName: "LOG_LEVEL", defaultValue: "debug"},
		SeqUrl:               configValue{envVarName: "SEQ_URL"},
		SeqToken:             configValue{envVarName: "SEQ_TOKEN"},
		DevtoolsWebsocketUrl: configValue{envVarName: "DEVTOOLS_WEBSOCKET_URL"},
		GeminiApiKey:         configValue{envVarName: "GEMINI_API_KEY"},
		GeminiModel:          configValue{envVarName: "GEMINI_MODEL", defaultValue: "gemini-1.5-flash"},
		WorkerCount:          configValue{envVarName: "WORKER_COUNT", defaultValue: "4"},
		FetchTimeout:         configValue{envVarName: "FETCH_TIMEOUT", defaultValue: "30s"},
		FetchRetryCount:      configValue{envVarName: "FETCH_RETRY_COUNT", defaultValue: "2"},
		JobTimeout:           configValue{envVarName: "JOB_TIMEOUT", defaultValue: "10m"},
		ScrapeSchedule:       configValue{envVarName: "SCRAPE_SCHEDULE", defaultValue: "0 0 */6 * * *"},
		SyncSchedule:         configValue{envVarName: "SYNC_SCHEDULE", defaultValue: "0 30 * * * *"},
	}
}

func (c *Config) values() []*configValue {
	return []*configValue{
		&c.DbConnectionString,
		&c.Environment,
		&c.LogLevel,
		&c.SeqUrl,
		&c.SeqToken,
		&c.DevtoolsWebsocketUrl,
		&c.GeminiApiKey,
		&c.GeminiModel,
		&c.WorkerCount,
		&c.FetchTimeout,
		&c.FetchRetryCount,
		&c.JobTimeout,
		&c.ScrapeSchedule,
		&c.SyncSchedule,
	}
}

// Validate checks that numeric and duration values parse, so misconfiguration
// fails at startup instead of in the middle of a run.
func (c *Config) Validate() error {
	if _, err := c.WorkerCount.Int(); err != nil {
		return err
	}
	if _, err := c.FetchRetryCount.Int(); err != nil {
		return err
	}
	if _, err := c.FetchTimeout.Duration(); err != nil {
		return err
	}
	if _, err := c.JobTimeout.Duration(); err != nil {
		return err
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment.Value == "production"
}

var config *Config

func GetConfig() *Config {
	if config == nil {
		config = load()
	}

	return config
}

func load() *Config {
	config, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	return config
}

func LoadConfig() (*Config, error) {
	config := NewConfig()

	for _, v := range config.values() {
		if err := populateEnv(v); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func populateEnv(m *configValue) (err error) {
	v := os.Getenv(m.envVarName)

	if v == "" && m.required {
		if m.errorMessage != "" {
			return errors.New(m.errorMessage)
		}

		return fmt.Errorf("environment variable %s is not set", m.envVarName)
	}

	if v == "" {
		v = m.defaultValue
	}

	m.Value = v
	return nil
}
