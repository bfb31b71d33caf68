package config

// Config root
type Config struct {
	Server            ServerConfig      `mapstructure:"server"`
	DB                DBConfig          `mapstructure:"database"`
	Redis             RedisConfig       `mapstructure:"redis"`
	Mongo             MongoConfig       `mapstructure:"mongo"`
	Storage           StorageConfig     `mapstructure:"storage"`
	JWT               JWTConfig         `mapstructure:"jwt"`
	ERP               ERPConfig         `mapstructure:"erp"`
	Logstash          LogstashConfig    `mapstructure:"logstash"`
	Kafka             KafkaConfig       `mapstructure:"kafka"`
	KafkaUserConsumer KafkaUserConsumer `mapstructure:"kafka_user_consumer"`
	Notify            NotifyConfig      `mapstructure:"notify"`
	Feed              FeedConfig        `mapstructure:"feed"`
	Cron              CronConfig        `mapstructure:"cron"`
}

// ServerConfig http server
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig MySQL (user directory & follow graph)
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MongoConfig post store
type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// StorageConfig selects the post store backend: "mongo" or "memory"
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// ERPConfig HR/ERP directory
type ERPConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	ApiKey    string `mapstructure:"api_key"`
	ApiSecret string `mapstructure:"api_secret"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
	PageSize  int    `mapstructure:"page_size"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaUserConsumer directory change events
type KafkaUserConsumer struct {
	Enable  bool   `mapstructure:"enable"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// NotifyConfig outbound notification channel
type NotifyConfig struct {
	Channel   string `mapstructure:"channel"`
	Service   string `mapstructure:"service"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type FeedConfig struct {
	ModeratorRoles     []string `mapstructure:"moderator_roles"`
	DefaultPageSize    int      `mapstructure:"default_page_size"`
	MaxPageSize        int      `mapstructure:"max_page_size"`
	TrendingWindowDays int      `mapstructure:"trending_window_days"`
	TrendingLimit      int      `mapstructure:"trending_limit"`
	RelatedLimit       int      `mapstructure:"related_limit"`
	FanoutTimeoutMs    int      `mapstructure:"fanout_timeout_ms"`
}

type CronConfig struct {
	DirectorySync string `mapstructure:"directory_sync"`
}
