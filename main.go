package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	app "github.com/rocketscienceinc/tacticwar-backend/internal"
	"github.com/rocketscienceinc/tacticwar-backend/internal/config"
)

// main - is the entry point of the application. It loads .env, parses the command line and runs
// the selected command.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "could not load .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		panic(fmt.Errorf("app run failed: %w", err))
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "tacticwar",
		Usage: "two-player session broker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yml",
				Usage:   "path to the config file",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "sweep",
				Usage:  "delete expired sessions once and exit",
				Action: sweep,
			},
		},
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	conf := initConfig(cmd)
	logger := initLogger(conf)

	return app.RunApp(ctx, logger, conf)
}

func sweep(ctx context.Context, cmd *cli.Command) error {
	conf := initConfig(cmd)
	logger := initLogger(conf)

	removed, err := app.RunSweep(ctx, logger, conf)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "removed %d sessions\n", removed)

	return nil
}

// initialize config.
func initConfig(cmd *cli.Command) *config.Config {
	return config.MustLoad(cmd.String("config"))
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
