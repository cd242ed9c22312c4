package model

import "fmt"

// ColumnName converts a 0-based column index to a sheet column name
// (0 -> A, 25 -> Z, 26 -> AA).
func ColumnName(col int) string {
	name := ""
	n := col + 1
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

// CellAddress formats 0-based absolute coordinates as an A1-style address.
func CellAddress(row, col int) string {
	return fmt.Sprintf("%s%d", ColumnName(col), row+1)
}

// RangeAddress formats an inclusive rectangle of 0-based absolute
// coordinates as an A1-style range. Degenerate single-cell rectangles
// collapse to a single address.
func RangeAddress(rowStart, colStart, rowEnd, colEnd int) string {
	if rowStart == rowEnd && colStart == colEnd {
		return CellAddress(rowStart, colStart)
	}
	return fmt.Sprintf("%s:%s", CellAddress(rowStart, colStart), CellAddress(rowEnd, colEnd))
}
