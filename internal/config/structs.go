package config

import (
	"time"

	"github.com/configurator-admin/configurator-admin/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration // lifetime of issued bearer tokens
}

// LoginRate limits login attempts per client IP.
type LoginRate struct {
	Max    int           // attempts allowed per window
	Window time.Duration // length of the window
}

// CORS settings.
type CORS struct {
	AllowOrigins string // comma separated list of allowed origins
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Models    Models
	Seed      Seed
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool    // disable recover middleware
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // public origin of the API, used to build asset URLs
	JWTSecret      string  // HMAC secret for bearer tokens
	BodyLimit      int     // max request body size in bytes
	Session        Session // session settings
	LoginRate      LoginRate
	CORS           CORS
}

// Models holds the 3D model storage and config lookup settings.
type Models struct {
	UploadDir          string        // directory served under /models
	ConfigFetchTimeout time.Duration // timeout of external config requests
	ConfigCacheSize    int           // number of cached external configs
	ConfigCacheTTL     time.Duration // lifetime of a cached external config
	ConfigLookupDir    string        // searched by model name when a model has no config URL, empty disables
}

// Seed describes the account created on an empty user table.
type Seed struct {
	Name     string
	Email    string
	Password string
}
