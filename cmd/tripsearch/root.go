package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NERVsystems/tripmcp/pkg/cache"
	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/tools"
	ver "github.com/NERVsystems/tripmcp/pkg/version"
)

const envPrefix = "TRIPSEARCH"

// app carries what every subcommand needs. Flags are read through v so
// TRIPSEARCH_* variables stand in for any flag that was not given.
type app struct {
	out io.Writer
	v   *viper.Viper
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, v: viper.New()}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "tripsearch",
		Short:         "Search and compare trips between catalog locations",
		Version:       ver.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			level := slog.LevelWarn
			if a.v.GetBool("debug") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolP("debug", "v", false, "Enable debug logs")
	root.PersistentFlags().Bool("json", false, "Print JSON instead of a table")

	root.AddCommand(
		a.searchCmd(),
		a.citiesCmd(),
		a.locationsCmd(),
		a.modesCmd(),
		a.slotsCmd(),
	)
	return root
}

// registry builds a fresh in-process registry; searches live only as long as the command
func (a *app) registry() *tools.Registry {
	return tools.NewRegistry(slog.Default(),
		tools.WithSearchStore(cache.NewSearchStore(cache.DefaultSize, cache.DefaultTTL)),
		tools.WithDefaultDeparture(a.v.GetString("default-departure")))
}

func (a *app) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// userError renders domain and validation errors with their guidance
func userError(err error) error {
	e := core.FromError(err)
	if e.Guidance != "" {
		return fmt.Errorf("%s: %s (%s)", e.Code, e.Message, e.Guidance)
	}
	return fmt.Errorf("%s: %s", e.Code, e.Message)
}
