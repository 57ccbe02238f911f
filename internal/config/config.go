// Package config loads runtime configuration from defaults, an optional
// config file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/catefolio/backend/internal/domain"
)

// Storage backend selectors.
const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Config is the resolved runtime configuration.
type Config struct {
	Port           int    `mapstructure:"port"`
	ProjectID      string `mapstructure:"project_id"`
	Bucket         string `mapstructure:"bucket"`
	StorageBackend string `mapstructure:"storage_backend"`

	GeminiModel    string `mapstructure:"gemini_model"`
	LLMBatchSize   int    `mapstructure:"llm_batch_size"`
	LLMConcurrency int    `mapstructure:"llm_concurrency"`

	// DefaultCategories seeds the shared category set used by tenants that
	// have not saved their own.
	DefaultCategories []domain.Category `mapstructure:"default_categories"`
}

// Load reads configuration. A config file named catefolio.yaml in the
// working directory or /etc/catefolio is optional; environment variables
// (CATEFOLIO_PORT, CATEFOLIO_PROJECT_ID, ...) override everything.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	// keys without a meaningful default still need one registered so
	// AutomaticEnv values survive Unmarshal
	v.SetDefault("project_id", "")
	v.SetDefault("bucket", "")
	v.SetDefault("storage_backend", BackendMemory)
	v.SetDefault("gemini_model", "gemini-2.0-flash-lite-001")
	v.SetDefault("llm_batch_size", 100)
	v.SetDefault("llm_concurrency", 4)

	v.SetConfigName("catefolio")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/catefolio")

	v.SetEnvPrefix("catefolio")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.Load: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	if cfg.StorageBackend == BackendFirestore && cfg.ProjectID == "" {
		return nil, fmt.Errorf("config.Load: project_id is required with the firestore backend")
	}

	if len(cfg.DefaultCategories) == 0 {
		cfg.DefaultCategories = DefaultCategories()
	}
	return &cfg, nil
}

// DefaultCategories is the built-in category set with its keyword triggers.
func DefaultCategories() []domain.Category {
	return []domain.Category{
		{Name: "Income", Keywords: []string{"salary", "payroll", "급여", "월급"}},
		{Name: "Groceries", Keywords: []string{"supermarket", "grocery", "mart", "마트", "이마트", "홈플러스"}},
		{Name: "Dining", Keywords: []string{"restaurant", "cafe", "coffee", "starbucks", "스타벅스", "식당", "커피"}},
		{Name: "Transport", Keywords: []string{"uber", "taxi", "metro", "bus", "택시", "버스", "지하철", "교통"}},
		{Name: "Housing", Keywords: []string{"rent", "mortgage", "월세", "관리비"}},
		{Name: "Utilities", Keywords: []string{"electric", "water", "gas", "internet", "전기", "수도", "통신"}},
		{Name: "Insurance", Keywords: []string{"insurance", "bupa", "보험"}},
		{Name: "Health", Keywords: []string{"pharmacy", "hospital", "clinic", "병원", "약국"}},
		{Name: "Shopping", Keywords: []string{"amazon", "coupang", "쿠팡", "백화점"}},
		{Name: "Entertainment", Keywords: []string{"netflix", "spotify", "cinema", "영화"}},
		{Name: "Travel", Keywords: []string{"airline", "hotel", "항공", "호텔"}},
		{Name: "Transfer", Keywords: []string{"transfer", "이체", "송금"}},
	}
}
