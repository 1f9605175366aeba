package feedcrawler

import (
	"fmt"

	"github.com/spf13/viper"
)

// configService wraps viper over an optional .env file plus the real
// environment. Real environment variables always win over the file, so
// deployments can override without editing anything on disk.
type configService struct {
	v *viper.Viper
}

func newConfig() *configService {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "local")
	v.SetDefault("LOG_DIR", "storage/logs")
	v.SetDefault("FEED_DIR", "feeds")
	v.SetDefault("DEBUG_DIR", "storage/debug")
	v.SetDefault("STORE_HTML", false)
	v.SetDefault("SEND_HTML_TO_BIGQUERY", false)
	v.SetDefault("LOG_TO_CLOUD", false)
	v.SetDefault("STOP_INSTANCE_ON_COMPLETE", false)
	v.SetDefault("SNIPPETS_FILE", "tracking_snippets.html")
	v.SetDefault("GOOGLE_TAG_ID", "YOUR-GOOGLE-TAG-ID")
	v.SetDefault("META_PIXEL_ID", "YOUR-META-PIXEL-ID")

	if err := v.ReadInConfig(); err != nil {
		// No .env around is normal in deployed environments.
		fmt.Printf("config: no .env file loaded: %v\n", err)
	}

	return &configService{v: v}
}

// Env retrieves a raw configuration value with an optional default.
func (c *configService) Env(name string, defaultValue ...interface{}) interface{} {
	if value := c.v.Get(name); value != nil {
		return value
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// Set overrides a configuration value for the lifetime of the process.
func (c *configService) Set(name string, value interface{}) {
	c.v.Set(name, value)
}

func (c *configService) IsSet(name string) bool {
	return c.v.IsSet(name)
}

func (c *configService) GetString(name string) string {
	return c.v.GetString(name)
}

func (c *configService) GetInt(name string) int {
	return c.v.GetInt(name)
}

func (c *configService) GetBool(name string) bool {
	return c.v.GetBool(name)
}
