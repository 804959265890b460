// Package cmd provides the root command and CLI setup for soundcheck.
package cmd

import (
	"fmt"
	"os"

	"github.com/safer-rust/rust-safety-standard/internal/adapter"
	"github.com/safer-rust/rust-safety-standard/internal/controller"
	"github.com/safer-rust/rust-safety-standard/internal/domain"
	m "github.com/safer-rust/rust-safety-standard/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var snapshotAdapter adapter.SnapshotAdapter
var findingsStore adapter.FindingsStore
var workflow domain.Workflow
var ui controller.UI

// reportsOutputDirFlag is a root-level flag shared by commands that read/write reports.
var reportsOutputDirFlag string

// criterionFlag selects the visibility boundary used for escape checks.
var criterionFlag string

// excludePatterns is a root-level flag that filters snapshot files for applicable commands.
var excludePatterns []string

// plainFlag forces the non-interactive renderer even on a TTY.
var plainFlag bool

func init() {
	configureRootFlags(rootCmd)

	// Initialize shared dependencies. The UI is selected again once flags
	// are parsed, so --plain can take effect; see selectUI.
	snapshotAdapter = adapter.NewLocalSnapshotAdapter()
	findingsStore = adapter.NewFindingsStore()
	selectUI(rootCmd)
}

// newWorkflow builds the workflow over the shared adapters. A variable so
// tests can substitute a stub that survives UI re-selection.
var newWorkflow = func(ui controller.UI) domain.Workflow {
	return domain.NewWorkflow(snapshotAdapter, findingsStore, ui)
}

// selectUI picks the renderer and rebuilds the workflow on top of it. It runs
// before every command, after flag parsing, because the interactive decision
// depends on the plain flag.
func selectUI(cmd *cobra.Command) {
	interactive := controller.IsTTY(os.Stdout) && !viper.GetBool(plainFlagName)
	ui = controller.NewUI(cmd, interactive)
	workflow = newWorkflow(ui)
}

const pathPatternsHelp = `Positional arguments are snapshot files or directories:
  - crate.crate.yaml     check a single snapshot
  - ./snapshots          scan a directory for *.crate.yaml files
  - (none)               scan the current directory`

const rootLongDescription = `Soundcheck classifies every item of a crate snapshot as sound or as a
soundness violation. It verifies that declared safety requirements are
discharged where unsafe operations happen, that type invariants are
established and preserved, and that nothing an invariant depends on
escapes its visibility boundary.

` + pathPatternsHelp

const checkLongDescription = `Classify every item of the given crate snapshots (default: current directory).

` + pathPatternsHelp

const itemsLongDescription = `List items and their declared obligations per snapshot.

` + pathPatternsHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "soundcheck",
		Short: "Soundness classification for crate snapshots",
		Long:  rootLongDescription,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			selectUI(cmd.Root())
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&reportsOutputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for classification reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().StringVar(&criterionFlag, criterionFlagName, viper.GetString(criterionConfigKey), "visibility boundary for escape checks (struct, module, crate)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(criterionFlagName), criterionConfigKey)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude snapshots matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVar(&plainFlag, plainFlagName, viper.GetBool(plainFlagName), "plain table output, no interactive browser")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(plainFlagName), plainFlagName)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func parsePaths(args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}
