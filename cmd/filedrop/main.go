package main

import (
	"github.com/filedrop/filedrop/internal/cli"
)

// Version is injected via LDFLAGS at release build time.
var Version = "v1.0.0-dev"

func main() {
	cli.Version = Version
	cli.Execute()
}
