// Command transitcore wires the build/query/serve subcommands over the
// ingestion, graph-building and query packages, using
// github.com/spf13/cobra the way the reference GTFS and NeTEx tooling
// wire their own CLIs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/antigravity/transitcore/internal/builder"
	"github.com/antigravity/transitcore/internal/dataset"
	"github.com/antigravity/transitcore/internal/httpapi"
	"github.com/antigravity/transitcore/internal/ingest/gtfscsv"
	"github.com/antigravity/transitcore/internal/ingest/pgsql"
	"github.com/antigravity/transitcore/internal/query"
	"github.com/antigravity/transitcore/internal/transit"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transitcore",
		Short: "Time-expanded transit graph builder and earliest-arrival query engine",
	}
	root.AddCommand(buildCmd(), queryCmd(), serveCmd())
	return root
}

// sourceFlags are shared by every subcommand: a GTFS directory, or a
// Postgres DSN to load from instead. At least one must be set; --pg-dsn
// takes precedence when both are.
type sourceFlags struct {
	gtfsDir string
	pgDSN   string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.gtfsDir, "gtfs-dir", "", "directory containing stops.txt, stop_times.txt, trips.txt, calendar.txt")
	cmd.Flags().StringVar(&f.pgDSN, "pg-dsn", "", "Postgres connection string to load stops/lines/line_stops/schedules from, instead of --gtfs-dir")
}

func (f *sourceFlags) load(ctx context.Context) (*transit.Dataset, error) {
	switch {
	case f.pgDSN != "":
		pool, err := pgxpool.New(ctx, f.pgDSN)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return pgsql.Load(ctx, pool)
	case f.gtfsDir != "":
		return gtfscsv.Load(f.gtfsDir)
	default:
		return nil, fmt.Errorf("one of --gtfs-dir or --pg-dsn is required")
	}
}

func buildCmd() *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Ingest a dataset and report the built graph's size",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := src.load(cmd.Context())
			if err != nil {
				return err
			}
			g, err := builder.BuildGraph(d)
			if err != nil {
				return err
			}
			fmt.Printf("stop areas=%d stop points=%d route points=%d stop times=%d vehicle journeys=%d\n",
				len(d.StopAreas), len(d.StopPoints), len(d.RoutePoints), len(d.StopTimes), len(d.VehicleJourneys))
			fmt.Printf("graph vertices=%d\n", g.NumVertices())
			return nil
		},
	}
	src.register(cmd)
	return cmd
}

func queryCmd() *cobra.Command {
	var src sourceFlags
	var sourceArea, destArea, seconds, day int
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one earliest-arrival query and print the itinerary",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := src.load(cmd.Context())
			if err != nil {
				return err
			}
			g, err := builder.BuildGraph(d)
			if err != nil {
				return err
			}
			p := query.MakeItinerary(query.Compute(g, d, d.Calendar, sourceArea, destArea, seconds, day))
			if p.Empty() {
				fmt.Println("no route found")
				return nil
			}
			for _, it := range p.Items {
				fmt.Printf("stop_area=%d seconds=%d day=%d line=%d\n", it.StopArea, it.Seconds, it.Day, it.LineID)
			}
			fmt.Printf("changes=%d duration=%ds\n", p.NbChanges, p.Duration)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().IntVar(&sourceArea, "src", 0, "source stop-area local index")
	cmd.Flags().IntVar(&destArea, "dst", 0, "destination stop-area local index")
	cmd.Flags().IntVar(&seconds, "time", 8*3600, "departure time, seconds of day")
	cmd.Flags().IntVar(&day, "day", 0, "departure calendar day index")
	return cmd
}

func serveCmd() *cobra.Command {
	var src sourceFlags
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build the graph once and serve it over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := src.load(cmd.Context())
			if err != nil {
				return err
			}
			g, err := builder.BuildGraph(d)
			if err != nil {
				return err
			}
			var holder dataset.Holder
			holder.AcquireExclusive(&dataset.Snapshot{Graph: g, Data: d, Reg: d.Calendar})

			srv := httpapi.NewServer(&holder)
			fmt.Printf("listening on %s\n", addr)
			return http.ListenAndServe(addr, srv.Handler())
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
