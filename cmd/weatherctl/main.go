// weatherctl runs cache and upstream operations from the command line
// against the store configured in the environment.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/i474232898/weather-shortcode/internal/app"
	"github.com/i474232898/weather-shortcode/internal/config"
	"github.com/i474232898/weather-shortcode/internal/logging"
	"github.com/i474232898/weather-shortcode/internal/weather"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// service is the part of weather.Service the commands use.
type service interface {
	Query(ctx context.Context, placeName string, unit weather.Unit) (weather.Report, error)
	FlushCache(ctx context.Context) (int, error)
	FlushExpired(ctx context.Context) (int, error)
	TestConnection(ctx context.Context) (weather.Report, error)
}

// openService builds the service from the environment. Replaced in tests.
var openService = func(ctx context.Context) (service, weather.Unit, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", nil, err
	}
	logging.Init(cfg.LogLevel, "text")

	a, err := app.Build(ctx, cfg)
	if err != nil {
		return nil, "", nil, err
	}
	return a.Service, cfg.Settings.Unit(), func() { _ = a.Close() }, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "weatherctl",
		Short:         "Query current weather and manage the weather cache",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newQueryCmd(), newFlushCmd(), newFlushExpiredCmd(), newTestCmd())
	return root
}

func newQueryCmd() *cobra.Command {
	var city, unit string

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print current conditions for a city, using the cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc service, defaultUnit weather.Unit) error {
				u := defaultUnit
				if unit != "" {
					parsed, ok := weather.ParseUnit(unit)
					if !ok {
						return fmt.Errorf("unknown unit %q (want celsius or fahrenheit)", unit)
					}
					u = parsed
				}

				report, err := svc.Query(ctx, city, u)
				if err != nil {
					kind, _ := weather.KindOf(err)
					log.Debug().Err(err).Msg("query failed")
					return fmt.Errorf("weather unavailable: %s", kind)
				}
				return printJSON(cmd.OutOrStdout(), queryOutput(report, u))
			})
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "Place name to look up")
	cmd.Flags().StringVar(&unit, "unit", "", "Temperature unit: celsius or fahrenheit (default from WEATHER_DEFAULT_UNIT)")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Remove every cached weather entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc service, _ weather.Unit) error {
				n, err := svc.FlushCache(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
				return nil
			})
		},
	}
}

func newFlushExpiredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush-expired",
		Short: "Remove cached weather entries whose TTL has passed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc service, _ weather.Unit) error {
				n, err := svc.FlushExpired(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", n)
				return nil
			})
		},
	}
}

func newTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check that the geocoding and forecast APIs answer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, func(ctx context.Context, svc service, _ weather.Unit) error {
				report, err := svc.TestConnection(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %s %.0f%s\n", report.City, report.Conditions.Temperature, weather.UnitCelsius.Symbol())
				return nil
			})
		},
	}
}

func withService(cmd *cobra.Command, fn func(context.Context, service, weather.Unit) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, unit, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc, unit)
}

type output struct {
	City          string  `json:"city"`
	Country       string  `json:"country,omitempty"`
	Temperature   float64 `json:"temperature"`
	Unit          string  `json:"unit"`
	Description   string  `json:"description"`
	WindSpeedKph  float64 `json:"windSpeedKph"`
	WindDirection string  `json:"windDirection"`
	ObservedAt    string  `json:"observedAt"`
}

func queryOutput(r weather.Report, unit weather.Unit) output {
	c := r.Conditions
	return output{
		City:          r.City,
		Country:       r.Country,
		Temperature:   c.Temperature,
		Unit:          unit.Symbol(),
		Description:   weather.Describe(c.WeatherCode),
		WindSpeedKph:  c.WindSpeedKph,
		WindDirection: weather.Compass(c.WindDirectionDeg),
		ObservedAt:    c.ObservedAt.Format("2006-01-02T15:04Z07:00"),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
