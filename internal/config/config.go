package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultMaxImagePixels    = 10_000_000
	DefaultMaxOutputTokens   = 2000
	DefaultMaxImageDimension = 512
	DefaultImageQuality      = 75
	DefaultAttemptTimeout    = 60 * time.Second
	DefaultRequestDeadline   = 180 * time.Second
)

// DefaultFallbackModels is tried in order until one model returns a usable response.
var DefaultFallbackModels = []string{
	"x-ai/grok-2-vision-1212",
	"meta-llama/llama-4-maverick:free",
}

// DefaultAllowedFormats are the image formats accepted when ALLOWED_IMAGE_FORMATS is unset.
var DefaultAllowedFormats = []string{"PNG", "JPEG"}

// encodableFormats lists formats the server can re-encode after downscaling.
// A format outside this set can't be allowed because the outbound image must
// keep its original format.
var encodableFormats = map[string]bool{
	"PNG":  true,
	"JPEG": true,
	"GIF":  true,
}

// Config holds all settings read once at startup. It is passed explicitly to
// the components that need it and never mutated afterwards.
type Config struct {
	Host string
	Port string
	Env  string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	GeminiAPIKey      string
	FallbackModels    []string
	MaxOutputTokens   int

	MaxImagePixels      int
	AllowedImageFormats []string
	MaxImageDimension   int
	ImageQuality        int

	AttemptTimeout  time.Duration
	RequestDeadline time.Duration

	AppReferer       string
	AppTitle         string
	CORSAllowOrigins []string
	LogFile          string
}

// Load reads a .env file if one exists, then builds the config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds the config using getenv as the variable source.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Host:              get("SERVER_HOST", "localhost"),
		Port:              get("PORT", "8900"),
		Env:               strings.ToLower(get("ENV", "dev")),
		OpenRouterAPIKey:  get("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: strings.TrimRight(get("OPENROUTER_BASE_URL", DefaultOpenRouterBaseURL), "/"),
		GeminiAPIKey:      get("GEMINI_API_KEY", ""),
		AppTitle:          get("APP_TITLE", "Predystopic Calculator"),
		LogFile:           get("LOG_FILE", "app.log"),
	}
	if strings.EqualFold(cfg.LogFile, "none") {
		cfg.LogFile = ""
	}
	cfg.AppReferer = get("APP_REFERER", "http://localhost:"+cfg.Port)

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is not set in the environment variables")
	}

	var err error
	if cfg.MaxImagePixels, err = positiveInt(get("MAX_IMAGE_PIXELS", ""), DefaultMaxImagePixels, "MAX_IMAGE_PIXELS"); err != nil {
		return nil, err
	}
	if cfg.MaxOutputTokens, err = positiveInt(get("MAX_OUTPUT_TOKENS", ""), DefaultMaxOutputTokens, "MAX_OUTPUT_TOKENS"); err != nil {
		return nil, err
	}
	if cfg.MaxImageDimension, err = positiveInt(get("MAX_IMAGE_DIMENSION", ""), DefaultMaxImageDimension, "MAX_IMAGE_DIMENSION"); err != nil {
		return nil, err
	}
	if cfg.ImageQuality, err = positiveInt(get("IMAGE_QUALITY", ""), DefaultImageQuality, "IMAGE_QUALITY"); err != nil {
		return nil, err
	}
	if cfg.ImageQuality > 100 {
		return nil, fmt.Errorf("IMAGE_QUALITY must be between 1 and 100, got %d", cfg.ImageQuality)
	}
	if cfg.AttemptTimeout, err = duration(get("MODEL_ATTEMPT_TIMEOUT", ""), DefaultAttemptTimeout, "MODEL_ATTEMPT_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.RequestDeadline, err = duration(get("MODEL_REQUEST_DEADLINE", ""), DefaultRequestDeadline, "MODEL_REQUEST_DEADLINE"); err != nil {
		return nil, err
	}

	cfg.AllowedImageFormats = splitList(get("ALLOWED_IMAGE_FORMATS", ""), DefaultAllowedFormats)
	for i, f := range cfg.AllowedImageFormats {
		f = strings.ToUpper(f)
		if f == "JPG" {
			f = "JPEG"
		}
		if !encodableFormats[f] {
			return nil, fmt.Errorf("ALLOWED_IMAGE_FORMATS: unsupported format %q (supported: PNG, JPEG, GIF)", f)
		}
		cfg.AllowedImageFormats[i] = f
	}

	cfg.FallbackModels = splitList(get("FALLBACK_MODELS", ""), DefaultFallbackModels)
	for _, m := range cfg.FallbackModels {
		if strings.HasPrefix(strings.ToLower(m), "gemini:") && cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("FALLBACK_MODELS contains %q but GEMINI_API_KEY is not set", m)
		}
	}

	cfg.CORSAllowOrigins = splitList(get("CORS_ALLOW_ORIGINS", ""), []string{"*"})

	return cfg, nil
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "dev" || c.Env == "development"
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func positiveInt(raw string, def int, name string) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, "_", ""))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", name, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, n)
	}
	return n, nil
}

// duration accepts Go duration strings ("90s") or a bare number of seconds.
func duration(raw string, def time.Duration, name string) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("%s must be positive, got %d", name, secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", name, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return d, nil
}

func splitList(raw string, def []string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
