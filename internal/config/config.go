package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Keys       APIKeys
	Ai         AIConfig
	Auth       AuthConfig
	Safety     SafetyConfig
	Session    SessionConfig
	Intent     IntentConfig
	TopicCache TopicCacheConfig
	Retrieval  RetrievalConfig
	Tracing    TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	CardLogSampleRate  float64
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	DeepSeek     string
	IndexTopic   string // index-time embedding topic
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "gemini"
	EmbeddingModel    string
	OllamaBaseURL     string
	LLMProvider       string // "ollama" or "deepseek"
	LLMModel          string
	DeepSeekBaseURL   string
	LLMTemperature    float64
	LLMMaxTokens      int
	ResponderTimeout  time.Duration
	ReflectionBudget  time.Duration
}

type AuthConfig struct {
	Mode      string // "static", "jwt" or "none"
	StaticKey string
	JwtSecret string
}

type SafetyConfig struct {
	RulesPath      string
	Budget         time.Duration
	DebounceWindow time.Duration
	NegationWindow int
}

type SessionConfig struct {
	ActivationPhrase    string
	ActivationVariants  []string
	ActivationThreshold float64
	WarnAfter           time.Duration
	SecondWarnAfter     time.Duration
	EndAfter            time.Duration
	IdleEvict           time.Duration
	ArmTTL              time.Duration
}

type IntentConfig struct {
	Budget time.Duration
}

type TopicCacheConfig struct {
	Threshold float64
	TTL       time.Duration
	HitCap    int
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

type RetrievalConfig struct {
	TopK          int
	MinScore      float64
	RecencyDecay  time.Duration
	RecencyWeight float64
	TokenBudget   int
	Budget        time.Duration
	EmbedCacheTTL time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			CardLogSampleRate:  getEnvAsFloat("CARD_LOG_SAMPLE_RATE", 0.1),
			ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			DeepSeek:     getEnv("DEEPSEEK_API_KEY", ""),
			IndexTopic:   getEnv("INDEX_MEMORY_TOPIC_NAME", "INDEX_MEMORY"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			DeepSeekBaseURL:   getEnv("DEEPSEEK_BASE_URL", ""),
			LLMTemperature:    getEnvAsFloat("DEEPSEEK_TEMPERATURE", 0.7),
			LLMMaxTokens:      getEnvAsInt("DEEPSEEK_MAX_TOKENS", 512),
			ResponderTimeout:  getEnvAsDuration("RESPONDER_TIMEOUT", 10*time.Second),
			ReflectionBudget:  getEnvAsDuration("QUOTE_REFLECTION_BUDGET", 3*time.Second),
		},
		Auth: AuthConfig{
			Mode:      getEnv("AUTH_MODE", "static"),
			StaticKey: getEnv("AUTH_STATIC_KEY", "dev-secret"),
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Safety: SafetyConfig{
			RulesPath:      getEnv("SAFETY_RULES_PATH", ""),
			Budget:         getEnvAsDuration("SAFETY_BUDGET", 50*time.Millisecond),
			DebounceWindow: getEnvAsDuration("SAFETY_DEBOUNCE_WINDOW", 10*time.Minute),
			NegationWindow: getEnvAsInt("SAFETY_NEGATION_WINDOW", 3),
		},
		Session: SessionConfig{
			ActivationPhrase:    getEnv("SESSION_ACTIVATION_PHRASE", "hey well bot"),
			ActivationVariants:  getEnvAsList("SESSION_ACTIVATION_VARIANTS", []string{"hi well bot", "hello well bot", "hey wellbot"}),
			ActivationThreshold: getEnvAsFloat("SESSION_ACTIVATION_THRESHOLD", 0.8),
			WarnAfter:           getEnvAsDuration("SESSION_WARN_AFTER", 30*time.Second),
			SecondWarnAfter:     getEnvAsDuration("SESSION_SECOND_WARN_AFTER", 45*time.Second),
			EndAfter:            getEnvAsDuration("SESSION_END_AFTER", 60*time.Second),
			IdleEvict:           getEnvAsDuration("SESSION_IDLE_EVICT", 30*time.Minute),
			ArmTTL:              getEnvAsDuration("SESSION_ARM_TTL", 10*time.Minute),
		},
		Intent: IntentConfig{
			Budget: getEnvAsDuration("INTENT_BUDGET", 200*time.Millisecond),
		},
		TopicCache: TopicCacheConfig{
			Threshold: getEnvAsFloat("TOPIC_CACHE_THRESHOLD", 0.78),
			TTL:       getEnvAsDuration("TOPIC_CACHE_TTL", 5*time.Minute),
			HitCap:    getEnvAsInt("TOPIC_CACHE_HIT_CAP", 3),
		},
		Retrieval: RetrievalConfig{
			TopK:          getEnvAsInt("RETRIEVAL_TOP_K", 8),
			MinScore:      getEnvAsFloat("RETRIEVAL_MIN_SCORE", 0.35),
			RecencyDecay:  getEnvAsDuration("RETRIEVAL_RECENCY_DECAY", 168*time.Hour),
			RecencyWeight: getEnvAsFloat("RETRIEVAL_RECENCY_WEIGHT", 0.25),
			TokenBudget:   getEnvAsInt("RETRIEVAL_TOKEN_BUDGET", 600),
			Budget:        getEnvAsDuration("RETRIEVAL_BUDGET", 500*time.Millisecond),
			EmbedCacheTTL: getEnvAsDuration("RETRIEVAL_EMBED_CACHE_TTL", 10*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("500ms", "5m") or a plain number of seconds
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.ParseFloat(strValue, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	parts := strings.Split(strValue, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
