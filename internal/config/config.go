package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like "60s"
// or bare integers meaning seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	// A bare yaml integer also decodes into a string, so the int check must
	// come first.
	if value.Tag == "!!int" {
		var n int64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("duration seconds: %w", err)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string or integer seconds: %w", err)
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Paths       PathsConfig       `yaml:"paths"`
	Audio       AudioConfig       `yaml:"audio"`
	Mixer       MixerConfig       `yaml:"mixer"`
	ASR         ASRConfig         `yaml:"asr"`
	LLM         LLMConfig         `yaml:"llm"`
	Recap       RecapConfig       `yaml:"recap"`
	Publish     PublishConfig     `yaml:"publish"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

type PathsConfig struct {
	Sessions string `yaml:"sessions"`
	Intake   string `yaml:"intake"`
	Prompt   string `yaml:"prompt"`
}

type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BitDepth   int `yaml:"bit_depth"`
}

type MixerConfig struct {
	BinaryPath string   `yaml:"binary_path"`
	Timeout    Duration `yaml:"timeout"`
}

type ASRConfig struct {
	BinaryPath string   `yaml:"binary_path"`
	Model      string   `yaml:"model"`
	Device     string   `yaml:"device"`
	Timeout    Duration `yaml:"timeout"`
}

type LLMConfig struct {
	Provider    string   `yaml:"provider"`
	Host        string   `yaml:"host"`
	Model       string   `yaml:"model"`
	Temperature float64  `yaml:"temperature"`
	GeminiKeys  []string `yaml:"gemini_keys"`
}

type RecapConfig struct {
	ChunkSize    int      `yaml:"chunk_size"`
	Concurrency  int      `yaml:"concurrency"`
	ChunkTimeout Duration `yaml:"chunk_timeout"`
	MergeTimeout Duration `yaml:"merge_timeout"`
	WriteDocx    bool     `yaml:"write_docx"`
}

type PublishConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	Limit      int    `yaml:"limit"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

func (c *Config) Validate() error {
	if c.Paths.Sessions == "" {
		return fmt.Errorf("paths.sessions is required")
	}
	if c.ASR.BinaryPath == "" {
		return fmt.Errorf("asr.binary_path is required")
	}
	if c.LLM.Provider == "gemini" && len(c.LLM.GeminiKeys) == 0 {
		return fmt.Errorf("llm.gemini_keys is required when llm.provider is gemini")
	}
	if c.Recap.ChunkSize < 0 {
		return fmt.Errorf("recap.chunk_size must be positive")
	}

	if c.Paths.Intake == "" {
		c.Paths.Intake = "data/intake"
	}
	if c.Paths.Prompt == "" {
		c.Paths.Prompt = "prompts/recap_prompt.txt"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 48000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 2
	}
	if c.Audio.BitDepth == 0 {
		c.Audio.BitDepth = 16
	}
	if c.Mixer.BinaryPath == "" {
		c.Mixer.BinaryPath = "ffmpeg"
	}
	if c.Mixer.Timeout == 0 {
		c.Mixer.Timeout = Duration(60 * time.Second)
	}
	if c.ASR.Model == "" {
		c.ASR.Model = "large-v2"
	}
	if c.ASR.Device == "" {
		c.ASR.Device = "cpu"
	}
	if c.ASR.Timeout == 0 {
		c.ASR.Timeout = Duration(300 * time.Second)
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "ollama"
	}
	if c.LLM.Host == "" {
		c.LLM.Host = "http://127.0.0.1:11434"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3.1:8b"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.Recap.ChunkSize == 0 {
		c.Recap.ChunkSize = 12000
	}
	if c.Recap.Concurrency == 0 {
		c.Recap.Concurrency = 2
	}
	if c.Recap.ChunkTimeout == 0 {
		c.Recap.ChunkTimeout = Duration(120 * time.Second)
	}
	if c.Recap.MergeTimeout == 0 {
		c.Recap.MergeTimeout = Duration(180 * time.Second)
	}
	if c.Publish.Limit == 0 {
		c.Publish.Limit = 1900
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}

	return nil
}

// applyEnv overrides secret-bearing fields from the environment so they can
// stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("RECAP_WEBHOOK_URL"); v != "" {
		c.Publish.WebhookURL = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		c.LLM.Host = v
	}
	if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
		c.LLM.GeminiKeys = nil
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				c.LLM.GeminiKeys = append(c.LLM.GeminiKeys, k)
			}
		}
	}
}
