package main

import (
	"os"
	"strings"

	"taskly/internal/commands"
)

// VERSION is set during build via ldflags
var VERSION string

// getCurrentVersion retrieves the current version from build flags or version.txt
func getCurrentVersion() string {
	version := VERSION
	if version == "" {
		if versionData, err := os.ReadFile("version.txt"); err == nil {
			version = strings.TrimSpace(string(versionData))
		}
	}
	return version
}

func main() {
	commands.Execute(commands.NewApp(getCurrentVersion(), os.Stdout))
}
