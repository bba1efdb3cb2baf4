package mesh

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func singleTetMesh(t *testing.T) *Mesh {
	t.Helper()
	content := buildPatran(
		map[int][3]float64{
			1: {0, 0, 0},
			2: {1, 0, 0},
			3: {0, 1, 0},
			4: {0, 0, 1},
		},
		[]patranCell{{id: 1, typeCode: 5, verts: []int{1, 2, 3, 4}}},
	)
	m, err := ReadPatran(strings.NewReader(content))
	assert.NoError(t, err)
	return m
}

func TestScaleRoundTrip(t *testing.T) {
	m := singleTetMesh(t)
	original := make([][]float64, len(m.Points))
	for i, p := range m.Points {
		original[i] = append([]float64(nil), p...)
	}

	m.Scale(1000)
	m.Scale(0.001)

	for i, p := range m.Points {
		for j := range p {
			assert.InDelta(t, original[i][j], p[j], 1e-12)
		}
	}
}

func TestCellsPerPoint(t *testing.T) {
	content := buildPatran(
		map[int][3]float64{
			1: {0, 0, 0},
			2: {1, 0, 0},
			3: {0, 1, 0},
			4: {0, 0, 1},
			5: {1, 1, 1},
		},
		[]patranCell{
			{id: 1, typeCode: 5, verts: []int{1, 2, 3, 4}},
			{id: 2, typeCode: 5, verts: []int{2, 3, 4, 5}},
		},
	)
	m, err := ReadPatran(strings.NewReader(content))
	assert.NoError(t, err)

	counts := m.CellsPerPoint()
	assert.Equal(t, 1, counts[m.PointsID[1]])
	assert.Equal(t, 2, counts[m.PointsID[2]])
	assert.Equal(t, 1, counts[m.PointsID[5]])

	// Cached slice is reused
	assert.Same(t, &counts[0], &m.CellsPerPoint()[0])
}

func TestAverageCellToPoint(t *testing.T) {
	content := buildPatran(
		map[int][3]float64{
			1: {0, 0, 0},
			2: {1, 0, 0},
			3: {0, 1, 0},
			4: {0, 0, 1},
			5: {1, 1, 1},
		},
		[]patranCell{
			{id: 1, typeCode: 5, verts: []int{1, 2, 3, 4}},
			{id: 2, typeCode: 5, verts: []int{2, 3, 4, 5}},
		},
	)
	m, err := ReadPatran(strings.NewReader(content))
	assert.NoError(t, err)

	cellData := NewField(2, 1)
	cellData.Data[0] = 10
	cellData.Data[1] = 30

	out := m.AverageCellToPoint(cellData)
	assert.InDelta(t, 10.0, out.Data[m.PointsID[1]], 1e-12)  // only cell 0
	assert.InDelta(t, 20.0, out.Data[m.PointsID[2]], 1e-12)  // both cells
	assert.InDelta(t, 30.0, out.Data[m.PointsID[5]], 1e-12)  // only cell 1
}

func TestAverageCellToPointNaNPropagates(t *testing.T) {
	m := singleTetMesh(t)
	cellData := NewField(1, 1)
	cellData.Data[0] = math.NaN()

	out := m.AverageCellToPoint(cellData)
	for _, v := range out.Data {
		assert.True(t, math.IsNaN(v))
	}
}

func TestAveragePointToCell(t *testing.T) {
	m := singleTetMesh(t)
	pointData := NewField(m.NumPoints(), 1)
	for i := range pointData.Data {
		pointData.Data[i] = float64(i + 1) // 1, 2, 3, 4
	}

	out := m.AveragePointToCell(pointData)
	assert.Equal(t, 1, out.Len())
	assert.InDelta(t, 2.5, out.Data[0], 1e-12)
}

func TestRemoveFreePointsShiftsFields(t *testing.T) {
	m := NewMesh()
	m.Points = [][]float64{{0, 0, 0}, {9, 9, 9}, {1, 0, 0}, {0, 1, 0}}
	m.PointsID = map[int]int{10: 0, 11: 1, 12: 2, 13: 3}
	m.Cells[Triangle] = [][]int{{0, 2, 3}}
	m.CellsID[Triangle] = []int{1}
	f := NewField(4, 1)
	copy(f.Data, []float64{1, 2, 3, 4})
	m.PointFields["x"] = f

	m.RemoveFreePoints()

	assert.Equal(t, 3, m.NumPoints())
	assert.Equal(t, [][]int{{0, 1, 2}}, m.Cells[Triangle])
	assert.Equal(t, map[int]int{10: 0, 12: 1, 13: 2}, m.PointsID)
	assert.Equal(t, []float64{1, 3, 4}, m.PointFields["x"].Data)
}

func TestKeepOnlyAndCellIndex(t *testing.T) {
	content := buildPatran(
		map[int][3]float64{
			1: {0, 0, 0},
			2: {1, 0, 0},
			3: {0, 1, 0},
			4: {0, 0, 1},
		},
		[]patranCell{
			{id: 1, typeCode: 3, verts: []int{1, 2, 3}},
			{id: 9, typeCode: 5, verts: []int{1, 2, 3, 4}},
		},
	)
	m, err := ReadPatran(strings.NewReader(content))
	assert.NoError(t, err)
	assert.Equal(t, 2, m.NumCells())

	m.KeepOnly(Tetra)
	assert.Equal(t, 1, m.NumCells())
	assert.NotContains(t, m.Cells, Triangle)
	assert.Equal(t, map[int]int{9: 0}, m.CellIndex(Tetra))
}

func TestFieldRowView(t *testing.T) {
	f := NewNaNField(2, 3)
	assert.Equal(t, 2, f.Len())
	for _, v := range f.Data {
		assert.True(t, math.IsNaN(v))
	}
	f.Row(1)[2] = 7
	assert.Equal(t, 7.0, f.Data[5])
}
