package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easycab-sim/central/config"
	"github.com/easycab-sim/central/core/broadcast"
	"github.com/easycab-sim/central/core/registry"
	"github.com/easycab-sim/central/infra/logger"
	"github.com/easycab-sim/central/infra/store"
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Render the current persisted world view",
	RunE:  runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fileStore := store.New(cfg.Data, logger.NopLogger{})
	taxis, err := fileStore.LoadTaxis()
	if err != nil {
		return err
	}
	locations, err := fileStore.LoadLocations()
	if err != nil {
		return err
	}
	snap := registry.NewFrom(taxis, locations).Snapshot()
	renderer := broadcast.NewRenderer(cfg.Map.Width, cfg.Map.Height)
	fmt.Fprintln(cmd.OutOrStdout(), broadcast.Frame(renderer.Render(snap)))
	return nil
}
