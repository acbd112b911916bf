package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"vnquery/internal/cli"
	"vnquery/internal/config"
	"vnquery/internal/logging"
)

func main() {
	// Environment first: a .env in the working directory may carry the
	// OpenAI key that config loading falls back to.
	_ = godotenv.Load()

	cfg, err := config.Load(configDirArg(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vnquery: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger()

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configDirArg extracts --config from the raw arguments. The flag must be
// honored before cobra runs because configuration decides how the command
// tree is wired.
func configDirArg(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
