package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locvowork/fleet_management_sample/internal/bootstrap"
	"github.com/locvowork/fleet_management_sample/internal/database"
	"github.com/locvowork/fleet_management_sample/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seeder",
		Short:        "Fill Postgres, Elasticsearch and Datastore with sample fleet data",
		SilenceUsage: true,
	}
	root.AddCommand(newSeedCmd(), newClearCmd())
	return root
}

func newSeedCmd() *cobra.Command {
	var (
		preset string
		size   database.SeedSize
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate and store a sample data set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seeder, app, err := newSeeder(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Shutdown(context.Background())

			n := database.GetPresetConfig(database.SeedPreset(preset))
			if size.Customers > 0 {
				n.Customers = size.Customers
			}
			if size.Vehicles > 0 {
				n.Vehicles = size.Vehicles
			}
			if size.Orders > 0 {
				n.Orders = size.Orders
			}
			if size.Costs > 0 {
				n.Costs = size.Costs
			}
			if seed != 0 {
				seeder.WithSeed(seed)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeding %d customers, %d vehicles, %d orders, %d costs (preset %s)\n",
				n.Customers, n.Vehicles, n.Orders, n.Costs, preset)
			if _, err := seeder.Seed(cmd.Context(), n); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&preset, "preset", string(database.PresetMedium), "Data preset: small, medium, large, xlarge")
	f.IntVar(&size.Customers, "customers", 0, "Number of customers (overrides preset)")
	f.IntVar(&size.Vehicles, "vehicles", 0, "Number of vehicles (overrides preset)")
	f.IntVar(&size.Orders, "orders", 0, "Number of orders (overrides preset)")
	f.IntVar(&size.Costs, "costs", 0, "Number of cost entries (overrides preset)")
	f.Int64Var(&seed, "seed", 0, "Random seed for reproducible data")
	return cmd
}

func newClearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the seeded SQL data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "This will delete all customers, vehicles and orders. Continue? (yes/no): ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(answer) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			seeder, app, err := newSeeder(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Shutdown(context.Background())
			return seeder.Clear(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newSeeder(ctx context.Context) (*database.FleetSeeder, *bootstrap.App, error) {
	app := bootstrap.NewApp()
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize application", err)
		return nil, nil, err
	}
	return database.NewFleetSeeder(app.DB, app.Search, app.Datastore), app, nil
}
