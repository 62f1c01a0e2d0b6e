package config

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT        = "8080"
	DEFAULT_PASS_QUEUE  = "negotiator_passes"
	DEFAULT_OLLAMA_HOST = "http://localhost:11434"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Port string `json:"port" envconfig:"port"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"dns"`
}

type RedisConfig struct {
	Addr     string `json:"addr" envconfig:"addr"`
	Password string `json:"password" envconfig:"password"`
	DB       int    `json:"db" envconfig:"db"`
}

type AMQPConfig struct {
	URL       string `json:"url" envconfig:"url"`
	PassQueue string `json:"pass_queue" envconfig:"pass_queue"`
}

type ClassifierConfig struct {
	OllamaHost  string  `json:"ollama_host" envconfig:"ollama_host"`
	Model       string  `json:"model" envconfig:"model"`
	Temperature float64 `json:"temperature" envconfig:"temperature"`
}

type NegotiationConfig struct {
	CallTimeout       time.Duration `json:"call_timeout" envconfig:"call_timeout"`
	FetchWindow       time.Duration `json:"fetch_window" envconfig:"fetch_window"`
	FollowupMinAge    time.Duration `json:"followup_min_age" envconfig:"followup_min_age"`
	FollowupMaxAge    time.Duration `json:"followup_max_age" envconfig:"followup_max_age"`
	MaxFollowups      int           `json:"max_followups" envconfig:"max_followups"`
	MaxReportedErrors int           `json:"max_reported_errors" envconfig:"max_reported_errors"`
	RunLockTTL        time.Duration `json:"run_lock_ttl" envconfig:"run_lock_ttl"`
	PassInterval      time.Duration `json:"pass_interval" envconfig:"pass_interval"`
}

type LogConfig struct {
	Level  string `json:"level" envconfig:"level"`
	Format string `json:"format" envconfig:"format"`
}

type Configuration struct {
	ProjectName string            `json:"project_name" envconfig:"project_name"`
	Server      ServerConfig      `json:"server" envconfig:"server"`
	DataSource  DataSourceConfig  `json:"data_source" envconfig:"data_source"`
	Redis       RedisConfig       `json:"redis" envconfig:"redis"`
	AMQP        AMQPConfig        `json:"amqp" envconfig:"amqp"`
	Classifier  ClassifierConfig  `json:"classifier" envconfig:"classifier"`
	Negotiation NegotiationConfig `json:"negotiation" envconfig:"negotiation"`
	Log         LogConfig         `json:"log" envconfig:"log"`
}

// InitConfig loads .env (if any), overlays NEGOTIATOR_* variables and stores the result.
func InitConfig(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil {
		logrus.Warn("⚠️ No .env file found, relying on OS environment variables")
	}

	var cnf Configuration
	if err := envconfig.Process("negotiator", &cnf); err != nil {
		return errors.Wrap(err, "reading environment")
	}

	if err := cnf.validateAndAddDefaults(); err != nil {
		return err
	}

	configureLogger(cnf.Log)
	ConfigStore.Store(&cnf)
	return nil
}

func Fetch() (*Configuration, error) {
	c, ok := ConfigStore.Load().(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded. Call config.InitConfig first ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Addr = strings.TrimSpace(cnf.Redis.Addr)

	if cnf.ProjectName == "" {
		cnf.ProjectName = "Creator Negotiator"
	}

	if cnf.DataSource.Dns == "" {
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Addr == "" {
		return errors.New("redis address is required")
	}

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		logrus.Warnf("Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.AMQP.PassQueue == "" {
		cnf.AMQP.PassQueue = DEFAULT_PASS_QUEUE
	}

	if cnf.Classifier.OllamaHost == "" {
		cnf.Classifier.OllamaHost = DEFAULT_OLLAMA_HOST
	}
	if cnf.Classifier.Model == "" {
		cnf.Classifier.Model = "llama3"
	}

	n := &cnf.Negotiation
	if n.CallTimeout <= 0 {
		n.CallTimeout = 30 * time.Second
	}
	if n.FetchWindow <= 0 {
		n.FetchWindow = 24 * time.Hour
	}
	if n.FollowupMinAge <= 0 {
		n.FollowupMinAge = 2 * time.Hour
	}
	if n.FollowupMaxAge <= 0 {
		n.FollowupMaxAge = 6 * time.Hour
	}
	if n.FollowupMinAge > n.FollowupMaxAge {
		return errors.New("follow-up min age must not exceed max age")
	}
	if n.MaxFollowups <= 0 {
		n.MaxFollowups = 2
	}
	if n.MaxReportedErrors <= 0 {
		n.MaxReportedErrors = 5
	}
	if n.RunLockTTL <= 0 {
		n.RunLockTTL = 10 * time.Minute
	}
	if n.PassInterval <= 0 {
		n.PassInterval = 5 * time.Minute
	}

	return nil
}

// MockConfig sets a configuration for tests.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func configureLogger(cfg LogConfig) {
	if strings.EqualFold(cfg.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
