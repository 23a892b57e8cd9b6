package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("toml config log.appname can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("toml config log.servicename can not be empty")
)

// ErrorHandler reports writer failures on stderr, the only place left to put them.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s: log write failed: %v\n", "configurator-admin", err)
}
