package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xldiff/xldiff/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as MCP server (stdio)",
	Long: `Run xldiff as a Model Context Protocol server using stdio transport.

File access is restricted to the working directory unless an allow-list
is set with --allowed-paths, the XLDIFF_ALLOWED_PATHS environment
variable, or the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		allowedPaths, err := cmd.Flags().GetStringSlice("allowed-paths")
		if err != nil {
			return fmt.Errorf("failed to get allowed-paths flag: %w", err)
		}
		if len(allowedPaths) == 0 {
			allowedPaths = cfg.AllowedPaths
		}

		if len(allowedPaths) > 0 {
			// CLI flag and config take precedence over env var
			if err := mcp.InitAllowedPaths(allowedPaths); err != nil {
				return fmt.Errorf("failed to initialize allowed paths: %w", err)
			}
		} else {
			if err := mcp.LoadAllowedPathsFromEnv(); err != nil {
				return fmt.Errorf("failed to load allowed paths from environment: %w", err)
			}
		}

		srv, err := mcp.New(mcp.Options{
			StoreRoot:        cfg.StoreRoot,
			CacheSize:        cfg.CacheSize,
			Parallelism:      cfg.Parallelism,
			MaxCellsPerSheet: cfg.MaxCellsPerSheet,
		})
		if err != nil {
			return err
		}
		return srv.Run()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringSlice("allowed-paths", nil,
		"Additional directories to allow file access (comma-separated, e.g. --allowed-paths /tmp,/data)")
}
