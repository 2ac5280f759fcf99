package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/tripmcp/pkg/catalog"
	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/tools"
	"github.com/NERVsystems/tripmcp/pkg/trip"
)

func (a *app) searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Synthesize routes between two locations",
		Example: `  tripsearch search --from nyc-jfk --to nyc-ts
  tripsearch search --from lon-lhr --to lon-stp --time 17:30 --sort price --max-price 20
  tripsearch search --from sf-sfo --to sf-fwharf --modes bus,train,ferry --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.searchInput()
			if err != nil {
				return userError(err)
			}
			view, err := a.registry().Search(context.Background(), in)
			if err != nil {
				return userError(err)
			}
			if a.v.GetBool("json") {
				return a.printJSON(view)
			}
			return a.printRoutes(view)
		},
	}

	f := cmd.Flags()
	f.StringP("from", "f", "", "Origin location id")
	f.StringP("to", "t", "", "Destination location id")
	f.String("time", "", "Departure time, HH:MM (defaults to --default-departure)")
	f.String("default-departure", "09:00", "Departure used when --time is not given")
	f.StringP("sort", "s", "", "Sort key: price, duration, departureTime, arrivalTime, emissions")
	f.Float64("max-price", 0, "Hide routes costing more than this")
	f.Int("max-duration", 0, "Hide routes longer than this many minutes")
	f.String("modes", "", "Comma-separated mode ids to keep; an empty value keeps none")
	return cmd
}

// searchInput reads the search flags. Refinement flags apply only when set,
// so a bare search shows every route ordered by duration.
func (a *app) searchInput() (tools.SearchRoutesInput, error) {
	in := tools.SearchRoutesInput{
		From:          strings.TrimSpace(a.v.GetString("from")),
		To:            strings.TrimSpace(a.v.GetString("to")),
		DepartureTime: strings.TrimSpace(a.v.GetString("time")),
	}
	in.SortBy = strings.TrimSpace(a.v.GetString("sort"))

	if a.v.IsSet("max-price") {
		p := a.v.GetFloat64("max-price")
		in.MaxPrice = &p
	}
	if a.v.IsSet("max-duration") {
		d := a.v.GetInt("max-duration")
		in.MaxDuration = &d
	}
	if a.v.IsSet("modes") {
		in.Modes = []string{}
		for _, m := range strings.Split(a.v.GetString("modes"), ",") {
			if m = strings.TrimSpace(m); m != "" {
				in.Modes = append(in.Modes, m)
			}
		}
	}
	return in, core.ValidateStruct(in)
}

func (a *app) printRoutes(view tools.SearchView) error {
	fmt.Fprintf(a.out, "%s (%s) to %s (%s), %.1f km, departing %s\n",
		view.From.Name, view.From.City, view.To.Name, view.To.City, view.DistanceKm, view.DepartureTime)
	fmt.Fprintf(a.out, "%d of %d routes, sorted by %s\n\n", view.Count, view.Total, view.SortBy)

	if view.Count == 0 {
		fmt.Fprintln(a.out, "No routes match the current filters.")
		return nil
	}

	tw := a.table()
	fmt.Fprintln(tw, "MODE\tDEPART\tARRIVE\tDURATION\tPRICE\tCO2")
	for _, r := range view.Routes {
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%d min\t%s\t%s\n",
			r.ModeIcon, r.ModeName, r.DepartureLabel, r.ArrivalLabel, r.DurationMinutes, r.PriceLabel, r.CO2Level)
	}
	return tw.Flush()
}

func (a *app) citiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities",
		Short: "List the cities in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			if a.v.GetBool("json") {
				return a.printJSON(cat.Cities())
			}
			tw := a.table()
			fmt.Fprintln(tw, "CITY\tLOCATIONS")
			for _, city := range cat.Cities() {
				fmt.Fprintf(tw, "%s\t%d\n", city, len(cat.LocationsByCity(city)))
			}
			return tw.Flush()
		},
	}
}

func (a *app) locationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations [query]",
		Short: "List locations, optionally by city or name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()

			var locs []catalog.Location
			switch city := a.v.GetString("city"); {
			case city != "":
				locs = cat.LocationsByCity(city)
				if len(locs) == 0 {
					return fmt.Errorf("unknown city %q, try one of: %s", city, strings.Join(cat.Cities(), ", "))
				}
			default:
				locs = cat.Locations()
			}
			if len(args) == 1 {
				matches := make(map[string]bool)
				for _, l := range cat.Search(args[0]) {
					matches[l.ID] = true
				}
				kept := locs[:0:0]
				for _, l := range locs {
					if matches[l.ID] {
						kept = append(kept, l)
					}
				}
				locs = kept
			}

			if a.v.GetBool("json") {
				return a.printJSON(locs)
			}
			tw := a.table()
			fmt.Fprintln(tw, "ID\tNAME\tCITY\tTYPE\tLAT\tLON")
			for _, l := range locs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\t%.4f\n",
					l.ID, l.Name, l.City, l.Kind, l.Coordinates.Latitude, l.Coordinates.Longitude)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringP("city", "c", "", "Only list locations in this city")
	return cmd
}

func (a *app) modesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List transport modes and their travel parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := trip.DescribeModes(catalog.Default())
			if a.v.GetBool("json") {
				return a.printJSON(modes)
			}
			tw := a.table()
			fmt.Fprintln(tw, "ID\tNAME\tSPEED\tFARE\tPER KM\tCO2/KM\tSCHEDULED")
			for _, m := range modes {
				p := m.Parameters
				fmt.Fprintf(tw, "%s\t%s %s\t%g km/h\t%s\t%.2f\t%.2f kg\t%t\n",
					m.ID, m.Icon, m.Name, p.SpeedKmh, trip.PriceLabel(p.BaseFare), p.PerKm, p.EmissionFactor, p.Scheduled)
			}
			return tw.Flush()
		},
	}
}

func (a *app) slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List the selectable departure times of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			step := a.v.GetInt("step")
			slots := trip.DepartureSlots(step)
			if slots == nil {
				return fmt.Errorf("step must be between 1 and 1440 minutes, got %d", step)
			}
			if a.v.GetBool("json") {
				return a.printJSON(slots)
			}
			for _, s := range slots {
				label, err := trip.FormatClock12(s)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s\t%s\n", s, label)
			}
			return nil
		},
	}
	cmd.Flags().Int("step", 30, "Minutes between slots")
	return cmd
}
