package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	Postgres struct {
		DSN         string `mapstructure:"dsn"`
		MaxOpen     int    `mapstructure:"max_open"`
		MaxIdle     int    `mapstructure:"max_idle"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
	} `mapstructure:"postgres"`
	Redis struct {
		Addr          string `mapstructure:"addr"`
		Password      string `mapstructure:"password"`
		DB            int    `mapstructure:"db"`
		PingTimeoutMS int    `mapstructure:"ping_timeout_ms"`
		HeartbeatSec  int    `mapstructure:"heartbeat_sec"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers      []string `mapstructure:"brokers"`
		AuditTopic   string   `mapstructure:"audit_topic"`
		GroupID      string   `mapstructure:"group_id"`
		AsyncQueue   int      `mapstructure:"async_queue"`
		AsyncWorkers int      `mapstructure:"async_workers"`
		AsyncBatch   int      `mapstructure:"async_batch"`
		AsyncWaitMS  int      `mapstructure:"async_wait_ms"`
	} `mapstructure:"kafka"`
	Etcd struct {
		Endpoints []string `mapstructure:"endpoints"`
		TTL       int      `mapstructure:"ttl"`
	} `mapstructure:"etcd"`
	JWT struct {
		Secret        string `mapstructure:"secret"`
		ExpireSeconds int    `mapstructure:"expire_seconds"`
		Issuer        string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	AppMeta struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
		Env     string `mapstructure:"env"`
	} `mapstructure:"app_meta"`
	OTel struct {
		Endpoint     string  `mapstructure:"endpoint"` // OTLP gRPC endpoint
		Insecure     bool    `mapstructure:"insecure"`
		SamplerRatio float64 `mapstructure:"sampler_ratio"`
		Enable       bool    `mapstructure:"enable"`
	} `mapstructure:"otel"`
	Audit struct {
		PageSize         int `mapstructure:"page_size"`
		MaxLimit         int `mapstructure:"max_limit"`
		StatsCacheTTLSec int `mapstructure:"stats_cache_ttl_sec"`
	} `mapstructure:"audit"`
	Session struct {
		Secret    string `mapstructure:"secret"`
		Name      string `mapstructure:"name"`
		MaxAgeSec int    `mapstructure:"max_age_sec"`
	} `mapstructure:"session"`
	Cart struct {
		GuestTTLHours int `mapstructure:"guest_ttl_hours"`
		MaxQuantity   int `mapstructure:"max_quantity"`
	} `mapstructure:"cart"`
}

// KafkaEnabled 未配置 broker 时审计事件直接落库
func (c *Config) KafkaEnabled() bool { return len(c.Kafka.Brokers) > 0 && c.Kafka.AuditTopic != "" }

func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.Audit.StatsCacheTTLSec) * time.Second
}

func (c *Config) GuestCartTTL() time.Duration {
	return time.Duration(c.Cart.GuestTTLHours) * time.Hour
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	setDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_meta.name", "GoStorefront")
	v.SetDefault("app_meta.version", "v1")
	v.SetDefault("app_meta.env", "dev")
	v.SetDefault("postgres.max_open", 20)
	v.SetDefault("postgres.max_idle", 5)
	v.SetDefault("redis.ping_timeout_ms", 300)
	v.SetDefault("redis.heartbeat_sec", 10)
	v.SetDefault("kafka.audit_topic", "storefront.audit")
	v.SetDefault("kafka.group_id", "storefront-audit-consumer")
	v.SetDefault("kafka.async_queue", 10000)
	v.SetDefault("kafka.async_workers", 1)
	v.SetDefault("kafka.async_batch", 50)
	v.SetDefault("kafka.async_wait_ms", 20)
	v.SetDefault("etcd.ttl", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("otel.enable", false)
	v.SetDefault("otel.sampler_ratio", 1.0)
	v.SetDefault("otel.insecure", true)
	v.SetDefault("audit.page_size", 50)
	v.SetDefault("audit.max_limit", 1000)
	v.SetDefault("audit.stats_cache_ttl_sec", 10)
	v.SetDefault("session.name", "storefront_session")
	v.SetDefault("session.max_age_sec", 7*86400)
	v.SetDefault("cart.guest_ttl_hours", 72)
	v.SetDefault("cart.max_quantity", 99)
}

// ===== 逻辑校验 =====
func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn required")
	}
	if len(c.JWT.Secret) < 16 {
		return fmt.Errorf("jwt.secret too short (>=16)")
	}
	if c.JWT.ExpireSeconds <= 0 {
		return fmt.Errorf("jwt.expire_seconds must >0")
	}
	if c.Audit.MaxLimit <= 0 || c.Audit.MaxLimit > 1000 {
		return errors.New("audit.max_limit must be in (0,1000]")
	}
	if c.Audit.PageSize <= 0 || c.Audit.PageSize > c.Audit.MaxLimit {
		return errors.New("audit.page_size must be in (0,audit.max_limit]")
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("session.secret too short (>=32)")
	}
	if c.Cart.MaxQuantity <= 0 {
		return errors.New("cart.max_quantity must >0")
	}
	if c.OTel.Enable {
		if c.OTel.Endpoint == "" {
			return errors.New("otel.endpoint required when otel.enable=true")
		}
		if c.OTel.SamplerRatio < 0 || c.OTel.SamplerRatio > 1 {
			return errors.New("otel.sampler_ratio must be in [0,1]")
		}
	}
	return nil
}
