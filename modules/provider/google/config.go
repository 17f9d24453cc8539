package google

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"google.golang.org/genai"
)

// Models used when none is configured.
const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultEmbeddingModel = "text-embedding-004"
)

// defaultTimeout bounds non-streaming requests. Streams only end through
// their context.
const defaultTimeout = 120 * time.Second

// Config holds the YAML-decoded configuration for the provider.google module.
type Config struct {
	APIKey         string            `yaml:"api_key"`
	APIKeyEnv      string            `yaml:"api_key_env"`
	BaseURL        string            `yaml:"base_url"`
	Model          string            `yaml:"model"`
	EmbeddingModel string            `yaml:"embedding_model"`
	Headers        map[string]string `yaml:"headers"`
	Timeout        time.Duration     `yaml:"timeout"`

	StructuredOutputs  *bool                   `yaml:"structured_outputs"`
	CachedContent      string                  `yaml:"cached_content"`
	UseSearchGrounding bool                    `yaml:"use_search_grounding"`
	DynamicRetrieval   *DynamicRetrievalConfig `yaml:"dynamic_retrieval"`
	SafetySettings     []SafetySettingConfig   `yaml:"safety_settings"`
	AudioTimestamp     bool                    `yaml:"audio_timestamp"`

	OutputDimensionality *int   `yaml:"output_dimensionality"`
	TaskType             string `yaml:"task_type"`
}

// DynamicRetrievalConfig configures search grounding retrieval.
type DynamicRetrievalConfig struct {
	Mode             string   `yaml:"mode"`
	DynamicThreshold *float32 `yaml:"dynamic_threshold"`
}

// SafetySettingConfig is one category threshold.
type SafetySettingConfig struct {
	Category  string `yaml:"category"`
	Threshold string `yaml:"threshold"`
}

var (
	harmCategories = []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryCivicIntegrity,
	}
	harmThresholds = []genai.HarmBlockThreshold{
		genai.HarmBlockThresholdUnspecified,
		genai.HarmBlockThresholdBlockLowAndAbove,
		genai.HarmBlockThresholdBlockMediumAndAbove,
		genai.HarmBlockThresholdBlockOnlyHigh,
		genai.HarmBlockThresholdBlockNone,
		genai.HarmBlockThresholdOff,
	}
	retrievalModes = []genai.DynamicRetrievalConfigMode{
		genai.DynamicRetrievalConfigModeUnspecified,
		genai.DynamicRetrievalConfigModeDynamic,
	}
)

// defaults fills in zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.EmbeddingModel == "" {
		c.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	for i, s := range c.SafetySettings {
		if !slices.Contains(harmCategories, genai.HarmCategory(s.Category)) {
			errs = append(errs, fmt.Errorf("safety_settings[%d]: unknown category %q", i, s.Category))
		}
		if !slices.Contains(harmThresholds, genai.HarmBlockThreshold(s.Threshold)) {
			errs = append(errs, fmt.Errorf("safety_settings[%d]: unknown threshold %q", i, s.Threshold))
		}
	}
	if dr := c.DynamicRetrieval; dr != nil && dr.Mode != "" {
		if !slices.Contains(retrievalModes, genai.DynamicRetrievalConfigMode(dr.Mode)) {
			errs = append(errs, fmt.Errorf("dynamic_retrieval: unknown mode %q", dr.Mode))
		}
	}
	if err := c.embeddingSettings().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// settings converts the model-level options.
func (c *Config) settings() Settings {
	s := Settings{
		StructuredOutputs:  c.StructuredOutputs,
		CachedContent:      c.CachedContent,
		UseSearchGrounding: c.UseSearchGrounding,
		AudioTimestamp:     c.AudioTimestamp,
	}
	if dr := c.DynamicRetrieval; dr != nil {
		s.DynamicRetrievalConfig = &genai.DynamicRetrievalConfig{
			Mode:             genai.DynamicRetrievalConfigMode(dr.Mode),
			DynamicThreshold: dr.DynamicThreshold,
		}
	}
	for _, ss := range c.SafetySettings {
		s.SafetySettings = append(s.SafetySettings, &genai.SafetySetting{
			Category:  genai.HarmCategory(ss.Category),
			Threshold: genai.HarmBlockThreshold(ss.Threshold),
		})
	}
	return s
}

func (c *Config) embeddingSettings() EmbeddingSettings {
	return EmbeddingSettings{
		OutputDimensionality: c.OutputDimensionality,
		TaskType:             c.TaskType,
	}
}
