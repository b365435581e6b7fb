package pixel

// Buffer is a fixed width × height grid indexed [row][col].
type Buffer struct {
	width, height int
	cells         []Color
}

// NewBuffer returns a blank (all absent) buffer.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{width: width, height: height, cells: make([]Color, width*height)}
}

// FromRows builds a buffer from row slices. Missing rows or cells stay
// absent and extra ones are dropped.
func FromRows(width, height int, rows [][]Color) *Buffer {
	b := NewBuffer(width, height)
	for r := 0; r < height && r < len(rows); r++ {
		copy(b.cells[r*width:(r+1)*width], rows[r])
	}
	return b
}

func (b *Buffer) Width() int  { return b.width }
func (b *Buffer) Height() int { return b.height }

// InBounds reports whether (row, col) addresses a cell.
func (b *Buffer) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < b.height && col < b.width
}

// At returns None outside the grid.
func (b *Buffer) At(row, col int) Color {
	if !b.InBounds(row, col) {
		return None
	}
	return b.cells[row*b.width+col]
}

// Set writes one cell and returns the previous value. Out of bounds is a no-op.
func (b *Buffer) Set(row, col int, c Color) (prev Color, ok bool) {
	if !b.InBounds(row, col) {
		return None, false
	}
	i := row*b.width + col
	prev = b.cells[i]
	b.cells[i] = c
	return prev, true
}

// IsEmpty reports whether every cell is absent.
func (b *Buffer) IsEmpty() bool {
	for _, c := range b.cells {
		if c.Set {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	cp := &Buffer{width: b.width, height: b.height, cells: make([]Color, len(b.cells))}
	copy(cp.cells, b.cells)
	return cp
}

// Rows returns a copy of the grid as [row][col] slices.
func (b *Buffer) Rows() [][]Color {
	rows := make([][]Color, b.height)
	for r := range rows {
		rows[r] = make([]Color, b.width)
		copy(rows[r], b.cells[r*b.width:(r+1)*b.width])
	}
	return rows
}

// Equal compares size and every cell.
func (b *Buffer) Equal(o *Buffer) bool {
	if o == nil || b.width != o.width || b.height != o.height {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}
