package main

import (
	"github.com/Justicegaines03/SOC-Risk-Engine/cmd"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
