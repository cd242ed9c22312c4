package output

import (
	"fmt"
	"os"
)

// Print outputs any result in the specified format to stdout.
// This is a convenience function for CLI commands.
func Print(result any, format Format) error {
	out, err := FormatSingle(format, result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Fprint(os.Stdout, string(out))
	return nil
}

// PrintTable outputs tabular data in the specified format to stdout.
func PrintTable(header []string, rows [][]string, format Format) error {
	out, err := FormatTable(format, header, rows)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Fprint(os.Stdout, string(out))
	return nil
}
