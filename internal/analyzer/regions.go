package analyzer

import (
	"image"
	"sort"

	"github.com/ivlev/pixology/internal/pixel"
	"github.com/ivlev/pixology/internal/renderer"
)

// RegionDetector reports every connected group of drawn cells, e.g. the
// separate sprites of a sheet-like drawing.
type RegionDetector struct {
	MinCells int  // Smaller groups are treated as noise
	Diagonal bool // 8-connectivity instead of 4
}

// NewRegionDetector creates a new region detector with default settings
func NewRegionDetector() *RegionDetector {
	return &RegionDetector{MinCells: 1}
}

// Detect finds connected drawn regions, largest first.
func (d *RegionDetector) Detect(src renderer.Source) ([]Block, error) {
	grid := compositeGrid(src)
	w, h := src.Size()
	visited := make([][]bool, h)
	for i := range visited {
		visited[i] = make([]bool, w)
	}

	blocks := []Block{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !grid[y][x].Set || visited[y][x] {
				continue
			}
			cells := floodRegion(grid, visited, x, y, d.Diagonal)
			if len(cells) < d.MinCells {
				continue
			}
			blocks = append(blocks, blockOf(grid, cells, "region"))
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Cells > blocks[j].Cells })
	return blocks, nil
}

// BoundsDetector reports one block around everything drawn.
type BoundsDetector struct{}

func (BoundsDetector) Detect(src renderer.Source) ([]Block, error) {
	grid := compositeGrid(src)
	var cells []image.Point
	for y, row := range grid {
		for x, c := range row {
			if c.Set {
				cells = append(cells, image.Point{X: x, Y: y})
			}
		}
	}
	if len(cells) == 0 {
		return nil, nil
	}
	return []Block{blockOf(grid, cells, "bounds")}, nil
}

// compositeGrid samples the visible colour of every cell once.
func compositeGrid(src renderer.Source) [][]pixel.Color {
	w, h := src.Size()
	grid := make([][]pixel.Color, h)
	for y := range grid {
		grid[y] = make([]pixel.Color, w)
		for x := range grid[y] {
			grid[y][x] = src.Composite(y, x)
		}
	}
	return grid
}

// floodRegion collects the drawn cells connected to the start cell.
func floodRegion(grid [][]pixel.Color, visited [][]bool, startX, startY int, diagonal bool) []image.Point {
	h := len(grid)
	w := len(grid[0])
	steps := []image.Point{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
	if diagonal {
		steps = append(steps, image.Point{X: 1, Y: 1}, image.Point{X: -1, Y: 1}, image.Point{X: 1, Y: -1}, image.Point{X: -1, Y: -1})
	}

	var cells []image.Point
	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		if visited[p.Y][p.X] || !grid[p.Y][p.X].Set {
			continue
		}
		visited[p.Y][p.X] = true
		cells = append(cells, p)

		for _, s := range steps {
			stack = append(stack, p.Add(s))
		}
	}
	return cells
}

func blockOf(grid [][]pixel.Color, cells []image.Point, kind string) Block {
	minX, minY := cells[0].X, cells[0].Y
	maxX, maxY := minX, minY
	counts := make(map[pixel.Color]int)
	for _, p := range cells {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		counts[grid[p.Y][p.X]]++
	}
	return Block{
		Rect:     image.Rect(minX, minY, maxX+1, maxY+1),
		Type:     kind,
		Cells:    len(cells),
		Dominant: topSwatches(counts)[0].Color,
	}
}
