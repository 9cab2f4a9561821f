package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/easycab-sim/central/config"
	"github.com/easycab-sim/central/infra/logger"
	"github.com/easycab-sim/central/infra/store"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet related commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the persisted fleet",
	RunE:  runFleetLs,
}

func init() {
	fleetCmd.AddCommand(fleetLsCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	taxis, err := store.New(cfg.Data, logger.NopLogger{}).LoadTaxis()
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(taxis))
	for id := range taxis {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		t := taxis[id]
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t(%d,%d)\t%s\n",
			t.ID, t.Status, t.Color, t.Position.X, t.Position.Y, t.CustomerID)
	}
	return nil
}
