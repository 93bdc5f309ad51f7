package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/atrium/internal"
	pkgconfig "github.com/starford/atrium/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	configPath := cmd.Root().String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, configPath, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(path),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithConfigPath(path),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

// newApp builds the command tree. One-shot commands read confirmations from
// stdin and print results to stdout.
func newApp(stdin io.Reader, stdout io.Writer) *cli.Command {
	c := &commands{stdin: stdin, stdout: stdout}
	return &cli.Command{
		Name:    "atrium",
		Usage:   "Admin dashboard for clients, projects and tasks of a REST backend",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the web dashboard",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the dashboard tools over MCP on stdio",
				Action: serveMCP,
			},
			clientsCommand(c),
			projectsCommand(c),
			tasksCommand(c),
			{
				Name:   "summary",
				Usage:  "Print counts, recent projects and the task overview",
				Action: c.summary,
			},
			{
				Name:  "diagnostics",
				Usage: "List recently recorded failures",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "resource", Usage: "Only failures of this resource"},
					&cli.StringFlag{Name: "kind", Usage: "Only failures of this kind (network, server, other)"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of entries", Value: 20},
				},
				Action: c.diagnostics,
			},
		},
	}
}

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
