package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg global config instance
var Cfg *Config

// LoadConfig reads configs/config.yaml (overridable by TOWNHALL_* env) into Cfg
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetEnvPrefix("TOWNHALL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("storage.driver", "mongo")
	viper.SetDefault("jwt.issuer", "townhall")
	viper.SetDefault("erp.timeout_ms", 20000)
	viper.SetDefault("erp.page_size", 100)
	viper.SetDefault("notify.channel", "notification-service")
	viper.SetDefault("notify.service", "social-service")
	viper.SetDefault("notify.timeout_ms", 3000)
	viper.SetDefault("feed.moderator_roles", []string{"admin"})
	viper.SetDefault("feed.default_page_size", 10)
	viper.SetDefault("feed.max_page_size", 100)
	viper.SetDefault("feed.trending_window_days", 7)
	viper.SetDefault("feed.trending_limit", 10)
	viper.SetDefault("feed.related_limit", 5)
	viper.SetDefault("feed.fanout_timeout_ms", 5000)
	viper.SetDefault("cron.directory_sync", "0 0 6 * * *")
}
