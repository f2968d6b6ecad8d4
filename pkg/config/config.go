package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Queue       QueueConfig
	ASR         ASRConfig
	Diarization DiarizationConfig
	Assembly    AssemblyAIConfig
	LLM         LLMConfig
	Groq        GroqConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string `envconfig:"PORT" default:"8080" validate:"required"`
	Host            string `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ShutdownTimeout int    `envconfig:"SHUTDOWN_TIMEOUT" default:"10" validate:"gte=0"`
}

// StorageConfig holds the job directory layout
type StorageConfig struct {
	DataRoot    string `envconfig:"DATA_ROOT" default:"/data" validate:"required"`
	MaxUploadMB int    `envconfig:"MAX_UPLOAD_MB" default:"512" validate:"gt=0"`
}

// QueueConfig holds job queue configuration
type QueueConfig struct {
	Backend     string `envconfig:"QUEUE_BACKEND" default:"redis" validate:"oneof=redis memory"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://redis:6379/0"`
	Key         string `envconfig:"QUEUE_KEY" default:"todo-maker:jobs" validate:"required"`
	WorkerCount int    `envconfig:"WORKER_COUNT" default:"1" validate:"gte=0"`
}

// ASRConfig holds speech recognition configuration
type ASRConfig struct {
	Backend     string `envconfig:"ASR_BACKEND" default:"local" validate:"oneof=local assemblyai"`
	Device      string `envconfig:"ASR_DEVICE" default:"auto" validate:"oneof=auto cpu cuda"`
	ComputeType string `envconfig:"ASR_COMPUTE_TYPE" default:"auto" validate:"required"`
	Model       string `envconfig:"ASR_MODEL" default:"large-v3" validate:"required"`
	BeamSize    int    `envconfig:"ASR_BEAM_SIZE" default:"5" validate:"gte=1"`
	PythonBin   string `envconfig:"PYTHON_BIN" default:"python3" validate:"required"`
}

// DiarizationConfig holds speaker diarization configuration
type DiarizationConfig struct {
	Backend          string `envconfig:"DIARIZATION_BACKEND" default:"pyannote" validate:"oneof=pyannote assemblyai"`
	Model            string `envconfig:"DIARIZATION_MODEL" default:"pyannote/speaker-diarization-3.1"`
	HuggingFaceToken string `envconfig:"HUGGINGFACE_TOKEN"`
}

// AssemblyAIConfig holds AssemblyAI credentials
type AssemblyAIConfig struct {
	APIKey string `envconfig:"ASSEMBLYAI_API_KEY"`
}

// LLMConfig holds LLM extraction configuration
type LLMConfig struct {
	Enabled        FlexBool `envconfig:"TODO_USE_LLM" default:"true"`
	Provider       string   `envconfig:"LLM_PROVIDER" default:"ollama" validate:"oneof=ollama groq"`
	OllamaBaseURL  string   `envconfig:"OLLAMA_BASE_URL" default:"http://ollama:11434" validate:"required,url"`
	OllamaModel    string   `envconfig:"OLLAMA_MODEL" default:"qwen2.5:14b" validate:"required"`
	OllamaTimeoutS int      `envconfig:"OLLAMA_TIMEOUT_SEC" default:"180" validate:"gt=0"`
	Temperature    float64  `envconfig:"LLM_TEMPERATURE" default:"0.1" validate:"gte=0,lte=2"`
}

// GroqConfig holds Groq API configuration
type GroqConfig struct {
	APIKey  string `envconfig:"GROQ_API_KEY"`
	BaseURL string `envconfig:"GROQ_API_URL" default:"https://api.groq.com" validate:"required,url"`
	Model   string `envconfig:"GROQ_MODEL" default:"llama-3.1-70b-versatile" validate:"required"`
}

// FlexBool decodes the boolean spellings accepted in deployment files:
// 1/true/yes/on are true, anything else is false.
type FlexBool bool

// Decode implements envconfig.Decoder
func (b *FlexBool) Decode(value string) error {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		*b = true
	default:
		*b = false
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config, err := FromEnv()
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv populates every section from the process environment
func FromEnv() (*Config, error) {
	config := &Config{}
	sections := []any{
		&config.Server,
		&config.Storage,
		&config.Queue,
		&config.ASR,
		&config.Diarization,
		&config.Assembly,
		&config.LLM,
		&config.Groq,
	}
	for _, section := range sections {
		if err := envconfig.Process("", section); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	// TODO_USE_OLLAMA is the older name of TODO_USE_LLM
	if _, set := os.LookupEnv("TODO_USE_LLM"); !set {
		if legacy, ok := os.LookupEnv("TODO_USE_OLLAMA"); ok {
			_ = config.LLM.Enabled.Decode(legacy)
		}
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.ASR.Backend == "assemblyai" && c.Assembly.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required when ASR_BACKEND=assemblyai")
	}
	if c.Queue.Backend == "redis" && c.Queue.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when QUEUE_BACKEND=redis")
	}
	if bool(c.LLM.Enabled) && c.LLM.Provider == "groq" && c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required when LLM_PROVIDER=groq")
	}
	return nil
}

// IsDevelopment reports whether the server runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// JobsDir returns the directory holding one subdirectory per job
func (c *Config) JobsDir() string {
	return filepath.Join(c.Storage.DataRoot, "jobs")
}

// OllamaTimeout returns the LLM request timeout
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.LLM.OllamaTimeoutS) * time.Second
}

// DiarizationCredential returns the credential of the configured diarization
// backend and the variable it comes from
func (c *Config) DiarizationCredential() (string, string) {
	if c.Diarization.Backend == "assemblyai" {
		return c.Assembly.APIKey, "ASSEMBLYAI_API_KEY"
	}
	return c.Diarization.HuggingFaceToken, "HUGGINGFACE_TOKEN"
}
