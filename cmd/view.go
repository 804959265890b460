package cmd

import (
	"context"

	"github.com/safer-rust/rust-safety-standard/internal/domain"
	m "github.com/safer-rust/rust-safety-standard/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View previously generated classification reports",
		Long:  "View previously generated classification reports from a reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(_ *cobra.Command, _ []string) error {
			reportsPath := m.Path(viper.GetString(outputFlagName))
			return workflow.View(context.Background(), domain.ViewArgs{Reports: reportsPath})
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}
