package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Timezone   string           `yaml:"timezone"`
	RunOnStart bool             `yaml:"run_on_start"`
	Database   DatabaseConfig   `yaml:"database"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Sink       SinkConfig       `yaml:"sink"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Telegram   TelegramConfig   `yaml:"telegram"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SummarizerConfig struct {
	Type           string `yaml:"type"`
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SinkConfig struct {
	Type string `yaml:"type"`
	Dir  string `yaml:"dir"`
}

// ScheduleConfig fixes when each summary job fires. Times are HH:MM in the
// configured timezone.
type ScheduleConfig struct {
	DailyAt      string `yaml:"daily_at"`
	WeeklyAt     string `yaml:"weekly_at"`
	WeeklyDay    string `yaml:"weekly_day"`
	MonthlyAt    string `yaml:"monthly_at"`
	MonthlyOnDay int    `yaml:"monthly_on_day"`
}

type TelegramConfig struct {
	Token           string  `yaml:"token"`
	AuthorizedUsers []int64 `yaml:"authorized_users"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarRegex.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

func setDefaults(cfg *Config) {
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "journal.db"
	}
	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "openai"
	}
	if cfg.Summarizer.Endpoint == "" {
		cfg.Summarizer.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if cfg.Summarizer.Model == "" {
		cfg.Summarizer.Model = "gpt-4o"
	}
	if cfg.Summarizer.MaxTokens == 0 {
		cfg.Summarizer.MaxTokens = 300
	}
	if cfg.Summarizer.TimeoutSeconds == 0 {
		cfg.Summarizer.TimeoutSeconds = 60
	}
	if cfg.Sink.Type == "" {
		cfg.Sink.Type = "file"
	}
	if cfg.Sink.Dir == "" {
		cfg.Sink.Dir = "summaries"
	}
	if cfg.Schedule.DailyAt == "" {
		cfg.Schedule.DailyAt = "09:00"
	}
	if cfg.Schedule.WeeklyAt == "" {
		cfg.Schedule.WeeklyAt = "09:00"
	}
	if cfg.Schedule.WeeklyDay == "" {
		cfg.Schedule.WeeklyDay = "MON"
	}
	if cfg.Schedule.MonthlyAt == "" {
		cfg.Schedule.MonthlyAt = "09:00"
	}
	if cfg.Schedule.MonthlyOnDay == 0 {
		cfg.Schedule.MonthlyOnDay = 1
	}
}

var timeOfDayRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

func validate(cfg *Config) error {
	if cfg.Summarizer.Type != "openai" {
		return fmt.Errorf("config: unsupported summarizer type %q (supported: openai)", cfg.Summarizer.Type)
	}
	if cfg.Summarizer.APIKey == "" {
		return fmt.Errorf("config: summarizer.api_key is required (set OPENAI_API_KEY env var)")
	}
	switch cfg.Sink.Type {
	case "file", "sqlite", "stdout":
	default:
		return fmt.Errorf("config: unsupported sink type %q (supported: file, sqlite, stdout)", cfg.Sink.Type)
	}
	for _, at := range []string{cfg.Schedule.DailyAt, cfg.Schedule.WeeklyAt, cfg.Schedule.MonthlyAt} {
		if !timeOfDayRegex.MatchString(at) {
			return fmt.Errorf("config: invalid schedule time %q (expected HH:MM)", at)
		}
	}
	switch strings.ToUpper(cfg.Schedule.WeeklyDay) {
	case "SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT":
	default:
		return fmt.Errorf("config: invalid schedule.weekly_day %q (expected SUN..SAT)", cfg.Schedule.WeeklyDay)
	}
	if cfg.Schedule.MonthlyOnDay < 1 || cfg.Schedule.MonthlyOnDay > 28 {
		return fmt.Errorf("config: schedule.monthly_on_day must be 1-28, got %d", cfg.Schedule.MonthlyOnDay)
	}
	return nil
}

// Load reads the config file, expands environment variables, applies defaults,
// and validates the configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
