package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/xldiff/xldiff/internal/config"
	"github.com/xldiff/xldiff/internal/log"
)

var (
	formatFlag   string
	basepathFlag string

	// cfg holds settings from an optional .xldiff.yaml file. Flags
	// override individual fields at the point of use.
	cfg config.Config

	// exitCode is the process exit code for a run whose command
	// returned no error. The diff command sets it to 1 when the
	// workbooks differ.
	exitCode int
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "xldiff",
	Short: "xldiff - compare Excel workbooks cell by cell",
	Long: `xldiff compares two xlsx workbooks cell by cell and reports added,
removed, and changed cells. Baselines can be kept in a snapshot store,
and differences can be written back as a highlighted copy of the
workbook.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Init()
		var err error
		cfg, err = config.Load()
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, date string) error {

	// Build version string with commit and date
	versionStr := version
	if versionStr == "" {
		versionStr = "dev"
	}
	if commit != "" {
		versionStr += fmt.Sprintf(" (commit: %s)", commit)
	}
	if date != "" {
		versionStr += fmt.Sprintf(" built: %s", date)
	}

	return fang.Execute(ctx, rootCmd,
		fang.WithVersion(versionStr),
	)
}

// ExitCode returns the exit code for the last completed run: 0 when the
// compared workbooks matched, 1 when differences were found.
func ExitCode() int {
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "", "Output format (text, json, csv, tsv)")
	rootCmd.PersistentFlags().StringVar(&basepathFlag, "basepath", "", "Base directory for relative workbook paths")
}
