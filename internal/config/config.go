package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/servicehub/internal/constants"
	"github.com/kozaktomas/servicehub/internal/facematch"
)

//go:embed categories.yaml
var categoriesYAML []byte

type Config struct {
	Web       WebConfig
	Face      FaceConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Recommend RecommendConfig
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // extra CORS origins; localhost is always allowed
	SplashImage    string   // local file served at /assets/splash-image
}

type FaceConfig struct {
	URL           string        // face server base URL; empty means fallback encoder only
	Dim           int           // embedding length (default 128)
	MaxImageSize  int           // longest side of images uploaded to the face server
	ProbeTimeout  time.Duration // how long the startup health probe may take
	Timeout       time.Duration // per-request timeout against the face server
	Threshold     float64       // match threshold for real face encodings (default 0.6)
	FallbackLimit float64       // match threshold for fallback embeddings (default 0.8)
	Workers       int           // parallel workers for batch enrollment
}

// ThresholdFor returns the match threshold appropriate for embeddings produced by kind.
func (c *FaceConfig) ThresholdFor(kind facematch.EncoderKind) float64 {
	if kind == facematch.KindFallback {
		return c.FallbackLimit
	}
	return c.Threshold
}

type DatabaseConfig struct {
	URL           string // PostgreSQL connection URL
	MaxOpenConns  int    // Maximum open connections (default 25)
	MaxIdleConns  int    // Maximum idle connections (default 5)
	FaceIndexPath string // Path to persist the enrollment HNSW index (optional, rebuilt on startup if empty)
}

type RateLimitConfig struct {
	Requests int           // requests allowed per window per client (default 100)
	Window   time.Duration // window length (default 60s)
}

type OpenAIConfig struct {
	Token string
	Model string // defaults to gpt-4.1-mini
}

type GeminiConfig struct {
	APIKey string
	Model  string // defaults to gemini-2.5-flash
}

type RecommendConfig struct {
	// Provider selects an LLM classifier: "openai", "gemini", or empty for keyword scoring only.
	Provider   string
	Categories []Category `yaml:"categories"`
	Fallback   []string   `yaml:"fallback"`
}

// Category is a bookable service category and the keywords that suggest it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable as a Go duration ("5s", "1m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envList reads a comma-separated environment variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var recommend RecommendConfig
	if err := yaml.Unmarshal(categoriesYAML, &recommend); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded categories.yaml: " + err.Error())
	}
	recommend.Provider = strings.ToLower(os.Getenv("RECOMMEND_PROVIDER"))

	return &Config{
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 5000),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			SplashImage:    os.Getenv("SPLASH_IMAGE_PATH"),
		},
		Face: FaceConfig{
			URL:           os.Getenv("FACE_SERVER_URL"),
			Dim:           envInt("FACE_EMBEDDING_DIM", facematch.EmbeddingDim),
			MaxImageSize:  envInt("FACE_MAX_IMAGE_SIZE", 1024),
			ProbeTimeout:  envDuration("FACE_PROBE_TIMEOUT", 5*time.Second),
			Timeout:       envDuration("FACE_TIMEOUT", 30*time.Second),
			Threshold:     envFloat("FACE_MATCH_THRESHOLD", 0.6),
			FallbackLimit: envFloat("FACE_FALLBACK_THRESHOLD", 0.8),
			Workers:       envInt("FACE_WORKERS", constants.WorkerPoolSize),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			FaceIndexPath: os.Getenv("FACE_INDEX_PATH"),
		},
		RateLimit: RateLimitConfig{
			Requests: envInt("RATE_LIMIT_REQUESTS", 100),
			Window:   envDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
			Model: envString("OPENAI_MODEL", "gpt-4.1-mini"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  envString("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Recommend: recommend,
	}
}
