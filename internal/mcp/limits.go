package mcp

const (
	// MaxWorkbookBytes is the largest xlsx file a tool call will open (50MB)
	MaxWorkbookBytes = 50 * 1024 * 1024

	// MaxGridCells is the largest aligned grid diff_sheet returns inline
	MaxGridCells = 250_000

	// MaxOutputBytes is the maximum size of JSON output (5MB)
	MaxOutputBytes = 5 * 1024 * 1024

	// DefaultCacheSize is the number of parsed workbooks kept in memory
	DefaultCacheSize = 8
)
