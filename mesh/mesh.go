package mesh

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// CellType represents the supported cell kinds
type CellType int

const (
	Line CellType = iota
	Triangle
	Quad
	Tetra
	Hexahedron
)

func (c CellType) String() string {
	return [...]string{"Line", "Triangle", "Quad", "Tetra", "Hexahedron"}[c]
}

// NumVerts returns the fixed vertex count for the cell kind
func (c CellType) NumVerts() int {
	return [...]int{2, 3, 4, 4, 8}[c]
}

// Field holds a named result array attached to mesh entities, row-major
// with Components values per entity. Missing entries are NaN.
type Field struct {
	Components int
	Data       []float64
}

// NewField allocates a zero-filled field for n entities
func NewField(n, components int) *Field {
	return &Field{
		Components: components,
		Data:       make([]float64, n*components),
	}
}

// NewNaNField allocates a field for n entities with every entry "not available"
func NewNaNField(n, components int) *Field {
	f := NewField(n, components)
	for i := range f.Data {
		f.Data[i] = math.NaN()
	}
	return f
}

// Len returns the number of entities in the field
func (f *Field) Len() int {
	return len(f.Data) / f.Components
}

// Row returns the component slice for entity i (a view, not a copy)
func (f *Field) Row(i int) []float64 {
	return f.Data[i*f.Components : (i+1)*f.Components]
}

// Mesh represents a normalized unstructured mesh with external id maps.
// Internal point ids are dense [0, len(Points)) after construction.
type Mesh struct {
	// Geometry
	Points [][]float64 // Point coordinates [npoints][3]

	// External identifier maps
	PointsID map[int]int          // External point id -> internal index
	Cells    map[CellType][][]int // Cell kind -> connectivity [ncells][nverts]
	CellsID  map[CellType][]int   // Cell kind -> external cell ids, index aligned

	// Result fields
	PointFields map[string]*Field
	CellFields  map[string]*Field

	cellsPerPoint []int // cached incidence counts
}

// NewMesh creates an empty mesh
func NewMesh() *Mesh {
	return &Mesh{
		PointsID:    make(map[int]int),
		Cells:       make(map[CellType][][]int),
		CellsID:     make(map[CellType][]int),
		PointFields: make(map[string]*Field),
		CellFields:  make(map[string]*Field),
	}
}

// NumPoints returns the number of retained points
func (m *Mesh) NumPoints() int {
	return len(m.Points)
}

// NumCells returns the total cell count across all kinds
func (m *Mesh) NumCells() int {
	var n int
	for _, cells := range m.Cells {
		n += len(cells)
	}
	return n
}

// Scale multiplies every point coordinate by factor, e.g. 1e3 for m -> mm
func (m *Mesh) Scale(factor float64) {
	for _, p := range m.Points {
		floats.Scale(factor, p)
	}
}

// CellsPerPoint returns the number of cells incident to each point,
// counted over all retained cell kinds. Computed once and cached.
func (m *Mesh) CellsPerPoint() []int {
	if m.cellsPerPoint != nil {
		return m.cellsPerPoint
	}
	counts := make([]int, len(m.Points))
	for _, cells := range m.Cells {
		for _, cell := range cells {
			for _, p := range cell {
				counts[p]++
			}
		}
	}
	m.cellsPerPoint = counts
	return counts
}

// CellIndex returns the external cell id -> block index map for a kind
func (m *Mesh) CellIndex(kind CellType) map[int]int {
	index := make(map[int]int, len(m.CellsID[kind]))
	for i, id := range m.CellsID[kind] {
		index[id] = i
	}
	return index
}

// KeepOnly discards every cell block except the given kind. Fields attached
// to other blocks are dropped with them.
func (m *Mesh) KeepOnly(kind CellType) {
	cells, cellsID := m.Cells[kind], m.CellsID[kind]
	m.Cells = map[CellType][][]int{kind: cells}
	m.CellsID = map[CellType][]int{kind: cellsID}
	m.cellsPerPoint = nil
}

// RemoveFreePoints drops points referenced by no cell, renumbering the
// survivors contiguously and rewriting every connectivity entry. Point
// fields and the external id map are compacted alongside.
func (m *Mesh) RemoveFreePoints() {
	n := len(m.Points)
	referenced := make([]bool, n)
	for _, cells := range m.Cells {
		for _, cell := range cells {
			for _, p := range cell {
				referenced[p] = true
			}
		}
	}

	// Prefix-sum shift: shift[i] = number of removed points with index < i
	shift := make([]int, n)
	var removed int
	for i := 0; i < n; i++ {
		shift[i] = removed
		if !referenced[i] {
			removed++
		}
	}
	if removed == 0 {
		return
	}

	points := make([][]float64, 0, n-removed)
	for i, p := range m.Points {
		if referenced[i] {
			points = append(points, p)
		}
	}
	m.Points = points

	for name, f := range m.PointFields {
		kept := NewField(len(points), f.Components)
		var k int
		for i := 0; i < n; i++ {
			if referenced[i] {
				copy(kept.Row(k), f.Row(i))
				k++
			}
		}
		m.PointFields[name] = kept
	}

	for _, cells := range m.Cells {
		for _, cell := range cells {
			for j, p := range cell {
				cell[j] = p - shift[p]
			}
		}
	}

	pointsID := make(map[int]int, len(points))
	for ext, i := range m.PointsID {
		if referenced[i] {
			pointsID[ext] = i - shift[i]
		}
	}
	m.PointsID = pointsID
	m.cellsPerPoint = nil
}

// AverageCellToPoint averages a field defined on the tetra block to the
// points, normalizing each point by its tetra incidence count. Points
// touched by no tetra divide zero by zero and stay "not available"; NaN
// contributions propagate arithmetically.
func (m *Mesh) AverageCellToPoint(cellData *Field) *Field {
	npoints := len(m.Points)
	out := NewField(npoints, cellData.Components)
	counts := make([]float64, npoints)
	for i, cell := range m.Cells[Tetra] {
		row := cellData.Row(i)
		for _, p := range cell {
			counts[p]++
			floats.Add(out.Row(p), row)
		}
	}
	for p := 0; p < npoints; p++ {
		floats.Scale(1/counts[p], out.Row(p))
	}
	return out
}

// AveragePointToCell averages a point field to the tetra block, taking the
// arithmetic mean over each cell's vertices.
func (m *Mesh) AveragePointToCell(pointData *Field) *Field {
	cells := m.Cells[Tetra]
	out := NewField(len(cells), pointData.Components)
	vals := make([]float64, 0, Tetra.NumVerts())
	for i, cell := range cells {
		row := out.Row(i)
		for c := 0; c < pointData.Components; c++ {
			vals = vals[:0]
			for _, p := range cell {
				vals = append(vals, pointData.Row(p)[c])
			}
			row[c] = stat.Mean(vals, nil)
		}
	}
	return out
}
