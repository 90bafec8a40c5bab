package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/richxcame/osrm-route/internal/osrm"
	"github.com/richxcame/osrm-route/internal/route"
	"github.com/richxcame/osrm-route/pkg/config"
	"github.com/richxcame/osrm-route/pkg/geo"
	"github.com/richxcame/osrm-route/pkg/logger"
	"go.uber.org/zap"
)

const serviceName = "route-cli"

const (
	defaultFrom = "-74.044338,4.718556"
	defaultTo   = "-73.9422946,4.9112815"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	from := fs.String("from", defaultFrom, "origin as lon,lat")
	to := fs.String("to", defaultTo, "destination as lon,lat")
	baseURL := fs.String("base-url", cfg.OSRM.BaseURL, "OSRM route service endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// The CLI reports on stdout, so the logger stays quiet unless asked.
	level := cfg.Server.LogLevel
	if level == "" {
		level = "warn"
	}
	if err := logger.Init(cfg.Server.Environment, level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	origin, err := geo.ParsePoint(*from)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	destination, err := geo.ParsePoint(*to)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}

	cfg.OSRM.BaseURL = *baseURL
	service := osrm.NewService(osrm.NewClientFromConfig(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ContextWithCorrelationID(ctx, uuid.New().String())

	logger.InfoContext(ctx, "Fetching route",
		zap.Stringer("origin", origin),
		zap.Stringer("destination", destination),
		zap.String("base_url", *baseURL),
	)

	resp, err := service.GetRoute(ctx, origin, destination)
	if err != nil {
		var logicalErr *route.LogicalError
		if errors.As(err, &logicalErr) {
			return fmt.Errorf("no route from %s to %s: %w", origin, destination, err)
		}
		return err
	}

	return printRoutes(out, resp)
}

// printRoutes writes each route summary followed by its projected maneuvers.
func printRoutes(out io.Writer, resp *route.Response) error {
	if len(resp.Routes) == 0 {
		_, err := fmt.Fprintln(out, "no routes returned")
		return err
	}

	for i := range resp.Routes {
		r := &resp.Routes[i]
		if _, err := fmt.Fprintf(out, "Route %d: %s (%.1f m, %.1f s)\n", i+1, r.Summary, r.Distance, r.Duration); err != nil {
			return err
		}

		projected, err := r.ProjectManeuvers()
		if err != nil {
			return err
		}

		n := 0
		for _, leg := range r.Legs {
			for _, step := range leg.Steps {
				maneuver := step.Maneuver.Type
				if step.Maneuver.Modifier != nil {
					maneuver += " " + *step.Maneuver.Modifier
				}
				if _, err := fmt.Fprintf(out, "  %-20s %-30q x=%.2f y=%.2f\n", maneuver, step.Name, projected[n].X, projected[n].Y); err != nil {
					return err
				}
				n++
			}
		}
	}
	return nil
}
