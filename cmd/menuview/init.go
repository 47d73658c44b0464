package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HuSoftSolutions/bunker-website-sub001/internal/config"
	"github.com/HuSoftSolutions/bunker-website-sub001/internal/models"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter menuview configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgFile)
		}

		cfg := config.DefaultConfig()
		cfg.Locations = []models.Location{{
			ID:   "example",
			Name: "Example Location",
			Menus: []models.DocumentDescriptor{
				{Name: "Lunch", StoragePath: "example/lunch.pdf"},
				{Name: "Dinner", StoragePath: "example/dinner.pdf"},
			},
		}}
		if err := cfg.Save(cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgFile)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
