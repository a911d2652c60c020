package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ListenAddr string `envconfig:"ADDR" default:":8090"`
	DBPath     string `envconfig:"DB_PATH" default:"parley.db"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"0"`

	// direct or room
	Mode string `envconfig:"CHAT_MODE" default:"direct"`

	GroqAPIKey  string        `envconfig:"GROQ_API_KEY"`
	GroqBaseURL string        `envconfig:"GROQ_BASE_URL"`
	GroqModel   string        `envconfig:"GROQ_MODEL" default:"llama-3.1-8b-instant"`
	GenTimeout  time.Duration `envconfig:"GENERATOR_TIMEOUT" default:"15s"`

	SilenceDelay  time.Duration `envconfig:"SILENCE_DELAY" default:"20s"`
	ObserverDelay time.Duration `envconfig:"OBSERVER_DELAY" default:"6s"`
	PairPeriod    int64         `envconfig:"PAIR_PERIOD" default:"6"`
	RoomPeriod    int64         `envconfig:"ROOM_PERIOD" default:"2"`
	ContextWindow int           `envconfig:"CONTEXT_WINDOW" default:"6"`
	BotUserID     int64         `envconfig:"BOT_USER_ID"`
}

func LoadConfig() Config {
	godotenv.Load()

	cfg := Config{}
	if err := envconfig.Process("parley", &cfg); err != nil {
		slog.Error("failed to parse environment", "err", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.ListenAddr, "addr", defaultAddr(cfg.ListenAddr), "Listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	if cfg.JWTSecret == "" {
		slog.Warn("PARLEY_JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "dev-secret-do-not-use"
	}
	return cfg
}

func defaultAddr(fromEnv string) string {
	// Railway, Render, etc. set PORT
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return fromEnv
}
