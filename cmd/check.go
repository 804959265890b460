package cmd

import (
	"context"
	"fmt"

	"github.com/safer-rust/rust-safety-standard/internal/domain"
	m "github.com/safer-rust/rust-safety-standard/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// parallelFlag caps how many obligation components are checked concurrently.
var parallelFlag int

// advisoriesFlag includes advisory findings in the displayed report.
var advisoriesFlag bool

var logFileFlag string
var verboseLogFlag bool

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Classify snapshot items as sound or violating",
		Long:  checkLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogger(logFileFlag, verboseLogFlag)

			raw := viper.GetString(criterionConfigKey)
			criterion, ok := m.ParseCriterion(raw)
			if !ok {
				return fmt.Errorf("unknown criterion %q (want struct, module, or crate)", raw)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			violations, err := workflow.Check(ctx, domain.CheckArgs{
				Paths:      parsePaths(args),
				Exclude:    viper.GetStringSlice(excludeConfigKey),
				Criterion:  criterion,
				Parallel:   viper.GetInt(checkParallelConfigKey),
				Reports:    m.Path(viper.GetString(outputFlagName)),
				Advisories: viper.GetBool(checkAdvisoriesConfigKey),
			})
			if err != nil {
				return err
			}

			if violations > 0 {
				return fmt.Errorf("%d soundness violation(s) found", violations)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&parallelFlag, parallelFlagName, "p", viper.GetInt(checkParallelConfigKey), "number of obligation components checked in parallel")
	bindFlagToConfig(cmd.Flags().Lookup(parallelFlagName), checkParallelConfigKey)

	cmd.Flags().BoolVar(&advisoriesFlag, advisoriesFlagName, viper.GetBool(checkAdvisoriesConfigKey), "include advisory findings in the displayed report")
	bindFlagToConfig(cmd.Flags().Lookup(advisoriesFlagName), checkAdvisoriesConfigKey)

	cmd.Flags().StringVar(&logFileFlag, "log-file", viper.GetString(logFilenameKey), "log file path")
	cmd.Flags().BoolVarP(&verboseLogFlag, "verbose", "v", viper.GetBool(logVerboseKey), "verbose (debug) logging")

	return cmd
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
