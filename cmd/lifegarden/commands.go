package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/neomorfeo/lifegarden/internal/app"
	"github.com/neomorfeo/lifegarden/internal/domain"
)

func rootCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "lifegarden",
		Short: "Life garden watering service",
		Long: `Lifegarden keeps a garden of symbolic plants, one per area of life.
Watering a plant records that the area got attention today; plants that
are not watered decay. Without a subcommand it serves the HTTP API.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := commandConfig(dbPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (overrides DATABASE_PATH)")

	cmd.AddCommand(
		serveCmd(&dbPath),
		seedCmd(&dbPath),
		statsCmd(&dbPath),
		arealsCmd(&dbPath),
		plantsCmd(&dbPath),
		exportCmd(&dbPath),
		waterCmd(&dbPath),
		limitCmd(&dbPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "lifegarden version %s\n", version)
			},
		},
	)

	return cmd
}

// commandConfig loads the environment configuration and applies --db.
func commandConfig(dbPath string) (config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return config{}, err
	}
	if dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	return cfg, nil
}

// withGarden opens the garden for one command and passes it to fn.
func withGarden(cmd *cobra.Command, dbPath string, fn func(ctx context.Context, g *garden, cfg config, out io.Writer) error) error {
	cfg, err := commandConfig(dbPath)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	g, err := openGarden(ctx, cfg, newLogger(cfg.LogLevel))
	if err != nil {
		return err
	}
	defer g.Close()
	return fn(ctx, g, cfg, cmd.OutOrStdout())
}

func serveCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (default)",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := commandConfig(*dbPath)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func seedCmd(dbPath *string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the default layout into an empty garden",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGarden(cmd, *dbPath, func(ctx context.Context, g *garden, cfg config, out io.Writer) error {
				path := file
				if path == "" {
					path = cfg.SeedFile
				}
				layout, err := seedLayout(path)
				if err != nil {
					return err
				}
				seeded, err := g.garden.Seed(ctx, layout)
				if err != nil {
					return err
				}
				if !seeded {
					fmt.Fprintln(out, "Garden already has areals; nothing seeded")
					return nil
				}
				plants := 0
				for _, entry := range layout {
					plants += len(entry.Plants)
				}
				fmt.Fprintf(out, "Seeded %d areals with %d plants\n", len(layout), plants)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML layout file (default: GARDEN_SEED_FILE or the built-in layout)")
	return cmd
}

func statsCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show garden statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGarden(cmd, *dbPath, func(ctx context.Context, g *garden, _ config, out io.Writer) error {
				stats, err := g.garden.Stats(ctx)
				if err != nil {
					return err
				}
				daily, err := g.watering.DailyStats(ctx, nil)
				if err != nil {
					return err
				}

				fmt.Fprintf(out, "Areals:          %d\n", stats.Areals)
				fmt.Fprintf(out, "Plants:          %d\n", stats.Plants)
				fmt.Fprintf(out, "  healthy:       %d\n", stats.Healthy)
				fmt.Fprintf(out, "  okay:          %d\n", stats.Okay)
				fmt.Fprintf(out, "  dead:          %d\n", stats.Dead)
				fmt.Fprintf(out, "Watered %s: %d of %d (%d remaining)\n",
					daily.Date, daily.Watered, daily.Limit, daily.Remaining)
				return nil
			})
		},
	}
}

func arealsCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "areals",
		Short: "List areals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGarden(cmd, *dbPath, func(ctx context.Context, g *garden, _ config, out io.Writer) error {
				layout, err := g.garden.Garden(ctx)
				if err != nil {
					return err
				}
				for _, entry := range layout {
					a := entry.Areal
					fmt.Fprintf(out, "- %s (%s)\n", a.Name, a.ID)
					fmt.Fprintf(out, "  position: %s / %s, size: %s, plants: %d\n",
						a.HorizontalPos, a.VerticalPos, a.Size, len(entry.Plants))
				}
				return nil
			})
		},
	}
}

func plantsCmd(dbPath *string) *cobra.Command {
	var (
		health     string
		arealID    string
		needsWater bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "plants",
		Short: "List plants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withGarden(cmd, *dbPath, func(ctx context.Context, g *garden, _ config, out io.Writer) error {
				filter := domain.PlantFilter{ArealID: arealID, NeedsWater: needsWater, Limit: limit}
				if health != "" {
					h := domain.Health(health)
					if !h.Valid() {
						return &domain.ValidationError{Field: "plant health", Value: health}
					}
					filter.Health = &h
				}

				plants, err := g.garden.ListPlants(ctx, filter)
				if err != nil {
					return err
				}
				for _, p := range plants {
					printPlant(out, p)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&health, "health", "", "Only plants with this health (healthy, okay, dead)")
	cmd.Flags().StringVar(&arealID, "areal", "", "Only plants in this areal")
	cmd.Flags().BoolVar(&needsWater, "needs-water", false, "Only plants needing water, most neglected first")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 for all)")
	return cmd
}

func printPlant(out io.Writer, p domain.Plant) {
	last := "never"
	if p.Watered() {
		last = p.LastWatered.String()
	}
	fmt.Fprintf(out, "- %s [%s] in %s\n", p.Name, p.Health, p.ArealID)
	fmt.Fprintf(out, "  size: %s, stage: %d, streak: %d, dry days: %d, last watered: %s\n",
		p.Size, p.GrowthStage, p.WaterStreak, p.DaysWithoutWater, last)
}

// exportFile is the JSON layout written by the export command.
type exportFile struct {
	Areals []exportAreal `json:"areals"`
}

type exportAreal struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	HorizontalPos string        `json:"horizontal_pos"`
	VerticalPos   string        `json:"vertical_pos"`
	Size          string        `json:"size"`
	Plants        []exportPlant `json:"plants"`
}

type exportPlant struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Health           string `json:"health"`
	ImagePath        string `json:"image_path"`
	Size             string `json:"size"`
	Position         string `json:"position"`
	GrowthStage      int    `json:"growth_stage"`
	LastWatered      string `json:"last_watered,omitempty"`
	DaysWithoutWater int    `json:"days_without_water"`
	WaterStreak      int    `json:"water_streak"`
	TotalWaterCount  int    `json:"total_water_count"`
}

func toExport(layout []domain.ArealLayout) exportFile {
	file := exportFile{Areals: make([]exportAreal, 0, len(layout))}
	for _, entry := range layout {
		a := exportAreal{
			ID:            entry.Areal.ID,
			Name:          entry.Areal.Name,
			HorizontalPos: entry.Areal.HorizontalPos,
			VerticalPos:   entry.Areal.VerticalPos,
			Size:          entry.Areal.Size,
			Plants:        make([]exportPlant, 0, len(entry.Plants)),
		}
		for _, p := range entry.Plants {
			ep := exportPlant{
				ID:               p.ID,
				Name:             p.Name,
				Health:           string(p.Health),
				ImagePath:        p.ImagePath,
				Size:             string(p.Size),
				Position:         p.Position,
				GrowthStage:      p.GrowthStage,
				DaysWithoutWater: p.DaysWithoutWater,
				WaterStreak:      p.WaterStreak,
				TotalWaterCount:  p.TotalWaterCount,
			}
			if p.Watered() {
				ep.LastWatered = p.LastWatered.String()
			}
			a.Plants = append(a.Plants, ep)
		}
		file.Areals = append(file.Areals, a)
	}
	return file
}

func exportCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the garden layout as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withGarden(cmd, *dbPath, func(ctx context.Context, g *garden, _ config, out io.Writer) error {
				layout, err := g.garden.Garden(ctx)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(toExport(layout), "", "  ")
				if err != nil {
					return fmt.Errorf("encoding garden: %w", err)
				}
				if err := os.WriteFile(args[0], append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("writing export: %w", err)
				}
				fmt.Fprintf(out, "Garden exported to %s\n", args[0])
				return nil
			})
		},
	}
}

func waterCmd(dbPath *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "water <plant>...",
		Short: "Water plants by name, highest priority first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var day *domain.Date
			if date != "" {
				d, err := domain.ParseDate(date)
				if err != nil {
					return err
				}
				day = &d
			}

			return withGarden(cmd, *dbPath, func(ctx context.Context, g *garden, _ config, out io.Writer) error {
				refs := make([]app.PlantRef, len(args))
				for i, name := range args {
					refs[i] = app.ByName(name)
				}

				summary, err := g.watering.Water(ctx, refs, day)
				return reportWatering(out, summary, err)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Watering date (YYYY-MM-DD), defaults to today")
	return cmd
}

// reportWatering prints summary. When err is set the plants already watered
// are still listed before err is returned.
func reportWatering(out io.Writer, summary app.WateringSummary, err error) error {
	if err != nil {
		if len(summary.Updated) == 0 && len(summary.Skipped) == 0 {
			return err
		}
		fmt.Fprintf(out, "Watering stopped after %d plants\n", len(summary.Updated))
	} else {
		fmt.Fprintln(out, summary.Message)
	}

	for _, p := range summary.Updated {
		printPlant(out, p)
	}
	for _, s := range summary.Skipped {
		fmt.Fprintf(out, "skipped %s: %s\n", s.Ref, s.Reason)
	}
	fmt.Fprintf(out, "%d of %d watered on %s, %d plants decayed\n",
		summary.PlantsWateredToday, summary.DailyLimit, summary.Date, summary.Decayed)
	return err
}

func limitCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "limit [n]",
		Short: "Show or change the daily watering limit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var next *int
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("parsing limit %q: %w", args[0], err)
				}
				next = &n
			}

			return withGarden(cmd, *dbPath, func(ctx context.Context, g *garden, _ config, out io.Writer) error {
				if next != nil {
					if err := g.watering.SetLimit(ctx, *next); err != nil {
						return err
					}
				}
				limit, err := g.watering.Limit(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Daily watering limit: %d\n", limit)
				return nil
			})
		},
	}
}
