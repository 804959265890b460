package cmd

import (
	"github.com/safer-rust/rust-safety-standard/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// itemsCmd represents the items command.
var itemsCmd = newItemsCmd()

func newItemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items [paths...]",
		Short: "List items and their declared obligations",
		Long:  itemsLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return workflow.Estimate(cmd.Context(), domain.EstimateArgs{
				Paths:   parsePaths(args),
				Exclude: viper.GetStringSlice(excludeConfigKey),
			})
		},
	}
}

func init() {
	rootCmd.AddCommand(itemsCmd)
}
