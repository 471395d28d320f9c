package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server    ServerConfig    `env:",prefix=SERVER_"`
	Postgres  PostgresConfig  `env:",prefix=POSTGRES_"`
	Redis     RedisConfig     `env:",prefix=REDIS_"`
	JWT       JWTConfig       `env:",prefix=JWT_"`
	Tokens    TokensConfig    `env:",prefix=TOKEN_"`
	TwoFactor TwoFactorConfig `env:",prefix=TWOFACTOR_"`
	SMTP      SMTPConfig      `env:",prefix=SMTP_"`
	OAuth     OAuthConfig     `env:",prefix=OAUTH_"`
	Security  SecurityConfig  `env:",prefix="`
	CORS      CORSConfig      `env:",prefix=CORS_"`
	Env       string          `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
	PublicURL    string   `env:"PUBLIC_URL,default=http://localhost:8080"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=auth_service"`
	Password string `env:"PASSWORD,default=auth_service_password"`
	DBName   string `env:"DB,default=auth_service_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	PendingTokenExpiry Duration `env:"PENDING_TOKEN_EXPIRY,default=10m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
}

type TokensConfig struct {
	VerificationExpiry  Duration `env:"VERIFICATION_EXPIRY,default=24h"`
	PasswordResetExpiry Duration `env:"PASSWORD_RESET_EXPIRY,default=1h"`
}

type TwoFactorConfig struct {
	Issuer          string `env:"ISSUER,default=CampGrid"`
	BackupCodeCount int    `env:"BACKUP_CODE_COUNT,default=10"`
}

type SMTPConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=587"`
	From     string `env:"FROM,default=no-reply@campgrid.example"`
	Username string `env:"USERNAME,default="`
	Password string `env:"PASSWORD,default="`
	Enabled  bool   `env:"ENABLED,default=false"`
}

type OAuthConfig struct {
	Google   OAuthProviderConfig `env:",prefix=GOOGLE_"`
	Facebook OAuthProviderConfig `env:",prefix=FACEBOOK_"`
}

type OAuthProviderConfig struct {
	ClientID     string `env:"CLIENT_ID,default="`
	ClientSecret string `env:"CLIENT_SECRET,default="`
	RedirectURL  string `env:"REDIRECT_URL,default="`
}

type SecurityConfig struct {
	BCryptCost           int      `env:"BCRYPT_COST,default=12"`
	PasswordHistoryDepth int      `env:"PASSWORD_HISTORY_DEPTH,default=5"`
	RateLimitRequests    int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow      Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate JWT secret length
	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	return &config, nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
