package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Cart         CartConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KARIBU_APP_ENV" required:"true"`
	Port         string `envconfig:"KARIBU_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KARIBU_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KARIBU_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"KARIBU_DB_DSN"`
	Driver string `envconfig:"KARIBU_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"KARIBU_DB_HOST"`
	Port     int    `envconfig:"KARIBU_DB_PORT" default:"5432"`
	User     string `envconfig:"KARIBU_DB_USER"`
	Password string `envconfig:"KARIBU_DB_PASSWORD"`
	Name     string `envconfig:"KARIBU_DB_NAME"`
	SSLMode  string `envconfig:"KARIBU_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KARIBU_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KARIBU_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KARIBU_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KARIBU_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KARIBU_REDIS_URL"`
	Address      string        `envconfig:"KARIBU_REDIS_ADDR"`
	Password     string        `envconfig:"KARIBU_REDIS_PASSWORD"`
	DB           int           `envconfig:"KARIBU_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KARIBU_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KARIBU_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KARIBU_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KARIBU_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KARIBU_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"KARIBU_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KARIBU_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KARIBU_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"KARIBU_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KARIBU_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KARIBU_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KARIBU_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KARIBU_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KARIBU_ARGON_KEY_LEN" default:"32"`
}

type CartConfig struct {
	SnapshotTTL time.Duration `envconfig:"KARIBU_CART_SNAPSHOT_TTL" default:"720h"`
}

type OrdersConfig struct {
	FallbackWhatsAppPhone string `envconfig:"KARIBU_ORDERS_FALLBACK_WHATSAPP_PHONE" default:""`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KARIBU_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, DBDriverSQLite) {
		return fmt.Errorf("%s is required when the sqlite driver is selected", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
