package main

import (
	_ "time/tzdata"

	"github.com/calendar-agent-poc/server/cmd"
)

// version will be set at build time
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
