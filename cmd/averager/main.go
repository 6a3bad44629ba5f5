package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "averager",
		Usage: "Keep a bounded window of provider numbers and report its average",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "Optional .env file loaded before flags are read",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Before: loadEnvFile,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the window over HTTP",
				Flags:  serveFlags(),
				Action: serve,
			},
			{
				Name:      "submit",
				Usage:     "Submit number ids against a fresh window and print each result",
				ArgsUsage: "<numberid>...",
				Flags:     submitFlags(),
				Action:    submit,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnvFile loads --env-file into the process environment. Variables that
// are already set keep their value.
func loadEnvFile(c *cli.Context) error {
	path := c.String("env-file")
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %q: %w", path, err)
	}
	return nil
}
