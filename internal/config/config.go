// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvConfigJSON names the environment variable whose JSON overrides the file config.
const EnvConfigJSON = "CONFIGURATOR_ADMIN_CONFIG_JSON"

const (
	defaultShutDownTime       = 5
	defaultSessionExpiry      = 24 * time.Hour
	defaultUploadDir          = "./uploads/models"
	defaultConfigFetchTimeout = 5 * time.Second
	defaultConfigCacheSize    = 128
	defaultConfigCacheTTL     = time.Minute
	defaultBodyLimit          = 50 << 20
	defaultLoginRateMax       = 10
	defaultLoginRateWindow    = 15 * time.Minute

	minJWTSecretLength = 32
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(path + "main.toml")
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service cannot start without and fills
// defaults for the optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// the URL is the public origin used for asset URLs
	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if len(c.Webserver.JWTSecret) < minJWTSecretLength {
		return errors.Wrap(ErrJWTSecretTooShort, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineSQLite
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrap(ErrUnknownGormEngine, c.DB.GormEngine)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Webserver.BodyLimit == 0 {
		c.Webserver.BodyLimit = defaultBodyLimit
	}

	if c.Webserver.LoginRate.Max == 0 {
		c.Webserver.LoginRate.Max = defaultLoginRateMax
	}

	if c.Webserver.LoginRate.Window == 0 {
		c.Webserver.LoginRate.Window = defaultLoginRateWindow
	}

	if c.Models.UploadDir == "" {
		c.Models.UploadDir = defaultUploadDir
	}

	if c.Models.ConfigFetchTimeout == 0 {
		c.Models.ConfigFetchTimeout = defaultConfigFetchTimeout
	}

	if c.Models.ConfigCacheSize == 0 {
		c.Models.ConfigCacheSize = defaultConfigCacheSize
	}

	if c.Models.ConfigCacheTTL == 0 {
		c.Models.ConfigCacheTTL = defaultConfigCacheTTL
	}

	return nil
}
