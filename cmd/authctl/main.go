package main

import (
	"os"

	"github.com/aussiebroadwan/authserver/cmd/authctl/app"
)

// version can be set during build with -ldflags
var version = "dev"

func main() {
	if err := app.NewRootCmd(version).Execute(); err != nil {
		os.Exit(1)
	}
}
