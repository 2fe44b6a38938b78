package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/fluxionhq/fluxion/pkg/cmd"
	"github.com/fluxionhq/fluxion/pkg/log"
	"github.com/fluxionhq/fluxion/pkg/otelhelper"
	"github.com/fluxionhq/fluxion/pkg/ratelimit"
)

const defaultPort = 8080

func main() {
	command := &cli.Command{
		Name:                  "fluxion-api",
		Usage:                 "Deploy workflow graphs as authenticated REST endpoints",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (memory, kafka)",
				Value:   "memory",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "rate-limit-url",
				Usage:   "Rate limiter backend (memory:// or redis://)",
				Sources: cli.EnvVars("RATE_LIMIT_URL"),
			},
			&cli.IntFlag{
				Name:    "requests-per-minute",
				Usage:   "Per-key execute request ceiling",
				Value:   ratelimit.DefaultRequestsPerMinute,
				Sources: cli.EnvVars("REQUESTS_PER_MINUTE"),
			},
			&cli.DurationFlag{
				Name:    "execution-timeout",
				Usage:   "Wall-clock bound for a single execution",
				Value:   5 * time.Minute,
				Sources: cli.EnvVars("EXECUTION_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "max-concurrent-executions",
				Usage:   "Global in-flight execution ceiling",
				Value:   64,
				Sources: cli.EnvVars("MAX_CONCURRENT_EXECUTIONS"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "API key for the chat completion endpoint",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "openai-base-url",
				Usage:   "Base URL of the chat completion endpoint",
				Value:   "https://api.openai.com/v1",
				Sources: cli.EnvVars("OPENAI_BASE_URL"),
			},
			&cli.StringFlag{
				Name:    "openai-model",
				Usage:   "Default model for LLM and agent nodes",
				Value:   "gpt-4o-mini",
				Sources: cli.EnvVars("OPENAI_MODEL"),
			},
			&cli.StringFlag{
				Name:    "mcp-servers",
				Usage:   "JSON array of MCP server configurations for agent tools",
				Sources: cli.EnvVars("MCP_SERVERS"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Fluxion API")

			if _, err := otelhelper.NewTracer(ctx, "fluxion-api"); err != nil {
				return fmt.Errorf("failed to initialize tracer: %w", err)
			}

			registry := cmd.NewRegistry(logger, cmd.LLMOptions{
				BaseURL: command.String("openai-base-url"),
				APIKey:  command.String("openai-api-key"),
				Model:   command.String("openai-model"),
			}, command.String("mcp-servers"))

			persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			limiter, err := ratelimit.New(command.String("rate-limit-url"),
				command.Int("requests-per-minute"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := limiter.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close rate limiter", "error", err)
				}
			}()

			api := NewAPI(
				logger,
				persistence,
				registry,
				eventBus,
				limiter,
				command.Duration("execution-timeout"),
				int64(command.Int("max-concurrent-executions")),
			)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
