package grid

// GetGridCoords maps a row-major cell index to its (column, row).
func GetGridCoords(index, cols int) (x, y int) {
	if cols <= 0 {
		return 0, 0
	}
	return index % cols, index / cols
}

// Rows returns the number of rows needed for n cells in cols columns.
func Rows(n, cols int) int {
	if cols <= 0 || n <= 0 {
		return 0
	}
	return (n + cols - 1) / cols
}
