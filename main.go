package main

import (
	"os"

	"github.com/configurator-admin/configurator-admin/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
