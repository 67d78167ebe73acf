package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/gokatarajesh/word-duel/internal/duel/difficulty"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"word-duel"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`
	RequestTimeout          time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"10s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Duel        Duel
	Words       Words
	Leaderboard Leaderboard
	CORS        CORS
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the libpq-style connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// PoolDSN is DSN plus the pgxpool sizing parameters.
func (p Postgres) PoolDSN() string {
	return fmt.Sprintf("%s pool_max_conns=%d", p.DSN(), p.MaxConns)
}

// Redis holds cache, duel state and pub/sub configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing and auth.
type Security struct {
	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"word-duel"`
	JWTLeeway time.Duration `env:"JWT_LEEWAY" envDefault:"30s"`
	SeedSalt  string        `env:"DUEL_SEED_SALT" envDefault:""`
}

// Duel groups gameplay defaults.
type Duel struct {
	QuestionCount      int           `env:"DUEL_QUESTION_COUNT" envDefault:"10"`
	PerQuestionSeconds int           `env:"DUEL_PER_QUESTION_SECONDS" envDefault:"15"`
	DefaultMode        string        `env:"DUEL_DEFAULT_MODE" envDefault:"choice"`
	DefaultPreset      string        `env:"DUEL_DEFAULT_PRESET" envDefault:"easy"`
	SabotageDuration   time.Duration `env:"DUEL_SABOTAGE_DURATION" envDefault:"5s"`
	SabotagesPerPlayer int           `env:"DUEL_SABOTAGES_PER_PLAYER" envDefault:"1"`
	StoreTTL           time.Duration `env:"DUEL_STORE_TTL" envDefault:"2h"`
}

// Words configures word-list caching.
type Words struct {
	CacheTTL time.Duration `env:"WORDS_CACHE_TTL" envDefault:"10m"`
	// WarmLists are refreshed into the cache every WarmInterval.
	WarmLists    []string      `env:"WORDS_WARM_LISTS" envSeparator:"," envDefault:""`
	WarmInterval time.Duration `env:"WORDS_WARM_INTERVAL" envDefault:"5m"`
}

// Leaderboard governs snapshotting and broadcast behavior.
type Leaderboard struct {
	TopN             int           `env:"LEADERBOARD_TOP_N" envDefault:"50"`
	PubSubChannel    string        `env:"LEADERBOARD_CHANNEL" envDefault:"lb:updates"`
	SnapshotInterval time.Duration `env:"LEADERBOARD_SNAPSHOT_INTERVAL" envDefault:"5m"`
	SnapshotTopN     int           `env:"LEADERBOARD_SNAPSHOT_TOP" envDefault:"50"`
}

// CORS holds Cross-Origin Resource Sharing configuration. The same origins gate
// WebSocket upgrades.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the env tags cannot express.
func (c *App) Validate() error {
	if c.Duel.QuestionCount <= 0 {
		return fmt.Errorf("DUEL_QUESTION_COUNT must be positive, got %d", c.Duel.QuestionCount)
	}
	if c.Duel.PerQuestionSeconds <= 0 {
		return fmt.Errorf("DUEL_PER_QUESTION_SECONDS must be positive, got %d", c.Duel.PerQuestionSeconds)
	}
	if c.Duel.SabotagesPerPlayer < 0 {
		return fmt.Errorf("DUEL_SABOTAGES_PER_PLAYER must not be negative")
	}
	switch c.Duel.DefaultMode {
	case "choice", "anagram":
	default:
		return fmt.Errorf("DUEL_DEFAULT_MODE must be choice or anagram, got %q", c.Duel.DefaultMode)
	}
	if _, err := difficulty.ParsePreset(c.Duel.DefaultPreset); err != nil {
		return fmt.Errorf("DUEL_DEFAULT_PRESET: %w", err)
	}
	return nil
}
