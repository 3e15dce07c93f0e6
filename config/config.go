package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	Database  DatabaseConfigs  `toml:"database"`
	ApiServer APIServerConfigs `toml:"api_server"`
	Auth      AuthConfigs      `toml:"auth"`
	Redis     RedisConfigs     `toml:"redis"`
	Kafka     KafkaConfigs     `toml:"kafka"`
	Lock      LockConfigs      `toml:"lock"`
	Bounty    BountyConfigs    `toml:"bounty"`
	Ledger    LedgerConfigs    `toml:"ledger"`
	Cron      CronConfigs      `toml:"cron"`
}

type DatabaseConfigs struct {
	Driver   string `toml:"driver"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`

	// Only used by the sqlite driver.
	File string `toml:"file"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type APIServerConfigs struct {
	Host         string   `toml:"host"`
	Port         string   `toml:"port"`
	MaxLimit     int      `toml:"max_limit"`
	DefaultLimit int      `toml:"default_limit"`
	AllowOrigins []string `toml:"allow_origins"`
}

type AuthConfigs struct {
	TokenSecret string       `toml:"token_secret"`
	AccessToken TokenConfigs `toml:"access_token"`
}

type TokenConfigs struct {
	Name       string   `toml:"name"`
	Expiration Duration `toml:"expiration"`
}

type RedisConfigs struct {
	Addr string `toml:"addr"`
}

type KafkaConfigs struct {
	Addr     string `toml:"addr"`
	ClientID string `toml:"client_id"`
}

type LockConfigs struct {
	// Backend is either "local" (single instance) or "redis".
	Backend string   `toml:"backend"`
	Timeout Duration `toml:"timeout"`
	TTL     Duration `toml:"ttl"`
}

type BountyConfigs struct {
	MaxActiveClaims int   `toml:"max_active_claims"`
	XPPerLevel      int64 `toml:"xp_per_level"`
}

type LedgerConfigs struct {
	SnowflakeNode int64 `toml:"snowflake_node"`
	MinWithdrawal int64 `toml:"min_withdrawal"`
}

type CronConfigs struct {
	ExpireBountyInterval Duration `toml:"expire_bounty_interval"`
	ReconcileInterval    Duration `toml:"reconcile_interval"`
	ReconcileParallelism int      `toml:"reconcile_parallelism"`
}

// Duration wraps time.Duration so it can be written as "5s" in toml files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfigs{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     "3306",
			Database: "bountyhub",
			User:     "mysql",
		},
		ApiServer: APIServerConfigs{
			Host:         "localhost",
			Port:         "8080",
			MaxLimit:     50,
			DefaultLimit: 10,
		},
		Auth: AuthConfigs{
			AccessToken: TokenConfigs{
				Name:       "access_token",
				Expiration: Duration{5 * time.Minute},
			},
		},
		Redis: RedisConfigs{Addr: "localhost:6379"},
		Kafka: KafkaConfigs{Addr: "localhost:9092", ClientID: "bountyhub"},
		Lock: LockConfigs{
			Backend: "local",
			Timeout: Duration{3 * time.Second},
			TTL:     Duration{10 * time.Second},
		},
		Bounty: BountyConfigs{
			MaxActiveClaims: 3,
			XPPerLevel:      1000,
		},
		Ledger: LedgerConfigs{
			SnowflakeNode: 1,
			MinWithdrawal: 1,
		},
		Cron: CronConfigs{
			ExpireBountyInterval: Duration{time.Minute},
			ReconcileInterval:    Duration{time.Hour},
			ReconcileParallelism: 4,
		},
	}
}

// Load reads the toml file at path on top of the default configs. Secrets can be overridden by
// environment variables.
func Load(path string) (Configs, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, err
		}
	}

	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Auth.TokenSecret = getEnv("TOKEN_SECRET", cfg.Auth.TokenSecret)
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}
