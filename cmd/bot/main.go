package main

import (
	"log"

	"github.com/cleanchistwood/cleanbot/core/cmd"
	"github.com/cleanchistwood/cleanbot/internal/app"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("cleanbot: %v", err)
	}
}
