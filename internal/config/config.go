package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Places   PlacesConfig
	Triage   TriageConfig
	Articles ArticlesConfig
	Session  SessionConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	places := loadPlacesConfig()

	triage, err := loadTriageConfig()
	if err != nil {
		return nil, err
	}

	sess, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       ai,
		Places:   places,
		Triage:   triage,
		Articles: ArticlesConfig{Path: strings.TrimSpace(os.Getenv("ARTICLES_PATH"))},
		Session:  sess,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat-completion backend. The Sonar settings drive
// the default OpenAI-compatible HTTP client; when Ark credentials are
// provided instead, the Ark SDK backend is used.
type AIConfig struct {
	SonarAPIKey    string
	SonarBaseURL   string
	SonarModel     string
	Temperature    float64
	MaxTokens      int
	FinalMaxTokens int

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string
}

// Enabled reports whether any completion backend has credentials.
func (c AIConfig) Enabled() bool {
	return c.SonarAPIKey != "" || c.ArkEnabled()
}

// ArkEnabled reports whether the Ark backend should be preferred.
func (c AIConfig) ArkEnabled() bool {
	return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

func loadAIConfig() (AIConfig, error) {
	temperature := 0.2
	if override, err := parseOptionalFloatEnv("SONAR_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	maxTokens, err := parseIntEnv("SONAR_MAX_TOKENS", 1500)
	if err != nil {
		return AIConfig{}, err
	}

	finalMaxTokens, err := parseIntEnv("SONAR_FINAL_MAX_TOKENS", 2048)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		SonarAPIKey:    strings.TrimSpace(os.Getenv("SONAR_API_KEY")),
		SonarBaseURL:   getEnvOrDefault("SONAR_BASE_URL", "https://api.perplexity.ai/chat/completions"),
		SonarModel:     getEnvOrDefault("SONAR_MODEL", "sonar-pro"),
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		FinalMaxTokens: finalMaxTokens,
		ArkAPIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
	}, nil
}

// PlacesConfig describes the maps/places provider. A missing API key only
// disables travel-time enrichment, never the facility search route itself.
type PlacesConfig struct {
	APIKey  string
	BaseURL string
}

// TravelTimesEnabled reports whether distance-matrix enrichment can run.
func (c PlacesConfig) TravelTimesEnabled() bool {
	return c.APIKey != ""
}

func loadPlacesConfig() PlacesConfig {
	return PlacesConfig{
		APIKey:  strings.TrimSpace(os.Getenv("GOOGLE_PLACES_API_KEY")),
		BaseURL: getEnvOrDefault("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com/maps/api"),
	}
}

// TriageConfig carries the tunable constants of the consultation flow.
type TriageConfig struct {
	CompletionThreshold int
	MinAssistantReply   int
}

func loadTriageConfig() (TriageConfig, error) {
	threshold, err := parseIntEnv("TRIAGE_COMPLETION_THRESHOLD", 5)
	if err != nil {
		return TriageConfig{}, err
	}
	if threshold < 1 {
		return TriageConfig{}, fmt.Errorf("TRIAGE_COMPLETION_THRESHOLD must be at least 1, got %d", threshold)
	}

	minReply, err := parseIntEnv("TRIAGE_MIN_ASSISTANT_REPLY", 20)
	if err != nil {
		return TriageConfig{}, err
	}

	return TriageConfig{CompletionThreshold: threshold, MinAssistantReply: minReply}, nil
}

// ArticlesConfig points at an optional JSON article dataset; empty means
// the built-in seed list.
type ArticlesConfig struct {
	Path string
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// RedisEnabled reports whether sessions should live in Redis.
func (c SessionConfig) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func loadSessionConfig() (SessionConfig, error) {
	db, err := parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return SessionConfig{}, err
	}

	ttlHours, err := parseIntEnv("SESSION_TTL_HOURS", 72)
	if err != nil {
		return SessionConfig{}, err
	}

	return SessionConfig{
		RedisAddr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
		TTL:           time.Duration(ttlHours) * time.Hour,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
