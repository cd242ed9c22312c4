// Package mcp exposes the workbook comparison engine as a Model Context
// Protocol server over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xldiff/xldiff/internal/cache"
	"github.com/xldiff/xldiff/internal/diff"
	"github.com/xldiff/xldiff/internal/model"
	"github.com/xldiff/xldiff/internal/overlay"
	"github.com/xldiff/xldiff/internal/snapshot"
	"github.com/xldiff/xldiff/internal/store"
)

// Options configures the server.
type Options struct {
	// StoreRoot is the snapshot store directory. Empty means the
	// default store location.
	StoreRoot string
	// CacheSize caps the parsed workbooks kept in memory. Zero means
	// DefaultCacheSize.
	CacheSize int
	// Parallelism caps concurrent sheet comparisons per call.
	Parallelism int
	// MaxCellsPerSheet caps the populated area captured per sheet.
	MaxCellsPerSheet int
}

// Server wraps the MCP server
type Server struct {
	mcpServer *server.MCPServer
	store     *store.Store
	cache     *cache.SnapshotCache
	opts      Options
}

// New creates a new MCP server with all tools registered
func New(opts Options) (*Server, error) {
	root := opts.StoreRoot
	if root == "" {
		var err error
		root, err = store.DefaultRoot()
		if err != nil {
			return nil, err
		}
	}

	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}

	s := server.NewMCPServer(
		"xldiff",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		store:     store.Open(root),
		cache:     cache.New(size),
		opts:      opts,
	}
	srv.registerTools()

	return srv, nil
}

// Run starts the MCP server on stdio
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	// diff_workbooks tool - full comparison without per-cell grids
	s.mcpServer.AddTool(mcp.NewTool("diff_workbooks",
		mcp.WithDescription("Compare two xlsx workbooks cell by cell and report per-sheet change counts plus changed regions as A1 ranges"),
		mcp.WithString("current", mcp.Required(), mcp.Description("Path to the current xlsx file, or a stored snapshot reference")),
		mcp.WithString("baseline", mcp.Required(), mcp.Description("Path to the baseline xlsx file, or a stored snapshot reference")),
		mcp.WithString("sheet", mcp.Description("Compare only this sheet (default: all sheets)")),
		mcp.WithBoolean("rects", mcp.Description("Include changed regions as A1 ranges (default: true)")),
	), s.handleDiffWorkbooks)

	// diff_sheet tool - one sheet's full difference grid
	s.mcpServer.AddTool(mcp.NewTool("diff_sheet",
		mcp.WithDescription("Compare one sheet of two workbooks and return the full difference grid (0 none, 1 added, 2 removed, 3 valueChanged, 4 formulaChanged)"),
		mcp.WithString("current", mcp.Required(), mcp.Description("Path to the current xlsx file, or a stored snapshot reference")),
		mcp.WithString("baseline", mcp.Required(), mcp.Description("Path to the baseline xlsx file, or a stored snapshot reference")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name")),
	), s.handleDiffSheet)

	// list_sheets tool
	s.mcpServer.AddTool(mcp.NewTool("list_sheets",
		mcp.WithDescription("List the sheets of an xlsx workbook or stored snapshot with their populated dimensions"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to xlsx file, or a stored snapshot reference")),
	), s.handleListSheets)

	// snapshot_save tool
	s.mcpServer.AddTool(mcp.NewTool("snapshot_save",
		mcp.WithDescription("Capture an xlsx workbook into the snapshot store for later comparisons"),
		mcp.WithString("file", mcp.Required(), mcp.Description("Path to xlsx file")),
		mcp.WithString("label", mcp.Description("Label for the snapshot (default: workbook file name)")),
	), s.handleSnapshotSave)

	// snapshot_list tool
	s.mcpServer.AddTool(mcp.NewTool("snapshot_list",
		mcp.WithDescription("List stored workbook snapshots"),
	), s.handleSnapshotList)

	// annotate tool
	s.mcpServer.AddTool(mcp.NewTool("annotate",
		mcp.WithDescription("Write a copy of the current workbook with every differing region highlighted, plus a summary sheet"),
		mcp.WithString("current", mcp.Required(), mcp.Description("Path to the current xlsx file")),
		mcp.WithString("baseline", mcp.Required(), mcp.Description("Path to the baseline xlsx file, or a stored snapshot reference")),
		mcp.WithString("out", mcp.Required(), mcp.Description("Path for the annotated copy")),
		mcp.WithBoolean("overwrite", mcp.Description("Allow overwriting an existing output file (default: false)")),
	), s.handleAnnotate)
}

// workbookDiff is the diff_workbooks payload: the comparison result
// without the per-cell grids.
type workbookDiff struct {
	Current     string                         `json:"current"`
	Baseline    string                         `json:"baseline"`
	SheetOrder  []string                       `json:"sheetOrder"`
	SheetStatus map[string]diff.SheetStatus    `json:"sheetStatus"`
	Counts      map[string]diff.Counts         `json:"counts"`
	Summary     diff.Counts                    `json:"summary"`
	Regions     map[string]map[string][]string `json:"regions,omitempty"`
	Identical   bool                           `json:"identical"`
}

// sheetDiff is the diff_sheet payload: one sheet's status plus its full
// difference grid when both sides have the sheet.
type sheetDiff struct {
	Sheet   string              `json:"sheet"`
	Status  diff.SheetStatus    `json:"status"`
	Grid    *diff.SheetDiff     `json:"grid,omitempty"`
	Regions map[string][]string `json:"regions,omitempty"`
}

type sheetMeta struct {
	Name  string `json:"name"`
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Cells int    `json:"cells"`
	Range string `json:"range,omitempty"`
}

// Tool handlers

func (s *Server) handleDiffWorkbooks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	currentRef := request.GetString("current", "")
	baselineRef := request.GetString("baseline", "")
	sheet := request.GetString("sheet", "")
	withRects := request.GetBool("rects", true)

	current, _, err := s.resolveWorkbook(currentRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	baseline, _, err := s.resolveWorkbook(baselineRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if sheet != "" {
		current, baseline, err = snapshot.FilterPair(current, baseline, []string{sheet})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	result := diff.Workbooks(current, baseline, diff.Options{Parallelism: s.opts.Parallelism})

	payload := workbookDiff{
		Current:     result.CurrentName,
		Baseline:    result.BaselineName,
		SheetOrder:  result.SheetOrder,
		SheetStatus: result.SheetStatus,
		Counts:      make(map[string]diff.Counts, len(result.BySheet)),
		Summary:     result.Summary,
		Identical:   !result.HasDifferences(),
	}
	for name, d := range result.BySheet {
		payload.Counts[name] = d.Counts
	}
	if withRects {
		payload.Regions = diff.Regions(result)
	}

	return jsonResult(payload)
}

func (s *Server) handleDiffSheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	currentRef := request.GetString("current", "")
	baselineRef := request.GetString("baseline", "")
	sheet := request.GetString("sheet", "")

	if sheet == "" {
		return mcp.NewToolResultError("sheet name cannot be empty"), nil
	}

	current, _, err := s.resolveWorkbook(currentRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	baseline, _, err := s.resolveWorkbook(baselineRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	current, baseline, err = snapshot.FilterPair(current, baseline, []string{sheet})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := diff.Workbooks(current, baseline, diff.Options{Parallelism: s.opts.Parallelism})
	if len(result.SheetOrder) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("sheet not found: %s", sheet)), nil
	}

	name := result.SheetOrder[0]
	payload := sheetDiff{Sheet: name, Status: result.SheetStatus[name]}
	if d, ok := result.BySheet[name]; ok {
		if d.Rows*d.Cols > MaxGridCells {
			return mcp.NewToolResultError(fmt.Sprintf(
				"difference grid too large (%d cells, max %d); use diff_workbooks for counts and regions",
				d.Rows*d.Cols, MaxGridCells)), nil
		}
		payload.Grid = d
		payload.Regions = diff.Regions(result)[name]
	}

	return jsonResult(payload)
}

func (s *Server) handleListSheets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := request.GetString("file", "")

	wb, _, err := s.resolveWorkbook(file)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	metas := make([]sheetMeta, len(wb.Sheets))
	for i := range wb.Sheets {
		sh := &wb.Sheets[i]
		metas[i] = sheetMeta{Name: sh.Name, Rows: sh.RowCount, Cols: sh.ColCount, Cells: sh.CellCount()}
		if sh.RowCount > 0 && sh.ColCount > 0 {
			metas[i].Range = model.RangeAddress(sh.RowOffset, sh.ColOffset, sh.RowEnd()-1, sh.ColEnd()-1)
		}
	}

	return jsonResult(metas)
}

func (s *Server) handleSnapshotSave(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := request.GetString("file", "")
	label := request.GetString("label", "")

	validPath, err := ValidateFilePath(file)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	wb, err := s.loadModel(validPath)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.store.Save(wb, label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(entry)
}

func (s *Server) handleSnapshotList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(entries)
}

func (s *Server) handleAnnotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	currentRef := request.GetString("current", "")
	baselineRef := request.GetString("baseline", "")
	out := request.GetString("out", "")
	overwrite := request.GetBool("overwrite", false)

	current, curPath, err := s.resolveWorkbook(currentRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if curPath == "" {
		return mcp.NewToolResultError("current must be an xlsx file, not a snapshot reference"), nil
	}
	baseline, _, err := s.resolveWorkbook(baselineRef)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	validOut, err := ValidateWritePath(out, overwrite)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := diff.Workbooks(current, baseline, diff.Options{Parallelism: s.opts.Parallelism})
	if err := overlay.Annotate(result, curPath, validOut); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]any{
		"out":       validOut,
		"summary":   result.Summary,
		"identical": !result.HasDifferences(),
	})
}

// Loading helpers

// loadModel extracts a workbook model from an xlsx file, going through
// the cache keyed by resolved path and file metadata.
func (s *Server) loadModel(validPath string) (*model.WorkbookModel, error) {
	if wb, ok := s.cache.Lookup(validPath); ok {
		return wb, nil
	}
	if err := CheckFileSize(validPath, MaxWorkbookBytes); err != nil {
		return nil, err
	}
	wb, err := snapshot.Capture(validPath, snapshot.Options{MaxCellsPerSheet: s.opts.MaxCellsPerSheet})
	if err != nil {
		return nil, err
	}
	s.cache.Store(validPath, wb)
	return wb, nil
}

// resolveWorkbook loads ref from disk when it names an existing file,
// after path validation, and from the snapshot store otherwise. The
// returned path is empty for store snapshots.
func (s *Server) resolveWorkbook(ref string) (*model.WorkbookModel, string, error) {
	if ref == "" {
		return nil, "", fmt.Errorf("workbook reference cannot be empty")
	}

	if looksLikeFile(ref) {
		validPath, err := ValidateFilePath(ref)
		if err != nil {
			return nil, "", err
		}
		wb, err := s.loadModel(validPath)
		return wb, validPath, err
	}

	wb, err := s.store.Load(ref)
	if err != nil {
		return nil, "", fmt.Errorf("%s is neither a workbook file nor a stored snapshot", ref)
	}
	return wb, "", nil
}

func looksLikeFile(ref string) bool {
	abs, err := filepath.Abs(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// Helper functions

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("JSON encoding error: %v", err)), nil
	}

	// Check output size limit
	if len(data) > MaxOutputBytes {
		return mcp.NewToolResultError(fmt.Sprintf("Output too large (%d bytes, max %d bytes). Try narrowing the sheet selection.", len(data), MaxOutputBytes)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
