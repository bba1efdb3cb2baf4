// Package fields maps decoded result values onto mesh entities.
package fields

import (
	"fmt"

	"moldex/mesh"
	"moldex/results"
)

// Symmetric tensors arrive on disk ordered [11,22,33,12,13,23]; consumers
// expect [11,22,33,12,23,13], so components 4 and 5 swap.
var tensorOrder = [6]int{0, 1, 2, 3, 5, 4}

// Projector attaches decoded records to a mesh. Element data resolves
// against the single retained cell kind.
type Projector struct {
	Mesh     *mesh.Mesh
	CellKind mesh.CellType
}

// NewProjector creates a projector for a mesh whose element results live on
// the given cell kind
func NewProjector(m *mesh.Mesh, cellKind mesh.CellType) *Projector {
	return &Projector{Mesh: m, CellKind: cellKind}
}

// Attach projects a mesh-kind record onto the mesh and returns the names of
// the fields added: the record name for single-step records, or one
// time-suffixed name per step for time-varying ones. Identifiers absent
// from the (possibly trimmed) mesh are dropped silently.
func (p *Projector) Attach(rec *results.Record) ([]string, error) {
	if !rec.Kind.IsMeshKind() {
		return nil, fmt.Errorf("record %q is non-mesh data and cannot attach to the mesh", rec.Name)
	}

	var names []string
	for i, step := range rec.Steps {
		name := rec.Name
		if rec.Time != nil {
			name = TimeSuffixed(rec.Name, rec.Time[i])
		}
		field := p.projectStep(rec, step)
		if rec.Kind == results.NodeData {
			p.Mesh.PointFields[name] = field
		} else {
			p.Mesh.CellFields[name] = field
		}
		names = append(names, name)
	}
	return names, nil
}

// TimeSuffixed encodes a time sample into a field name, e.g. "Fill__0.2500"
func TimeSuffixed(name string, t float64) string {
	return fmt.Sprintf("%s__%.4f", name, t)
}

func (p *Projector) projectStep(rec *results.Record, step map[int][]float64) *mesh.Field {
	var locate map[int]int
	var n int
	if rec.Kind == results.NodeData {
		locate = p.Mesh.PointsID
		n = p.Mesh.NumPoints()
	} else {
		locate = p.Mesh.CellIndex(p.CellKind)
		n = len(p.Mesh.Cells[p.CellKind])
	}

	field := mesh.NewNaNField(n, rec.Components)
	for id, row := range step {
		idx, ok := locate[id]
		if !ok {
			continue
		}
		copy(field.Row(idx), row)
	}

	if rec.Components == 6 {
		reorderTensor(field)
	}
	return field
}

func reorderTensor(f *mesh.Field) {
	var tmp [6]float64
	for i := 0; i < f.Len(); i++ {
		row := f.Row(i)
		for j, k := range tensorOrder {
			tmp[j] = row[k]
		}
		copy(row, tmp[:])
	}
}

// Table converts a non-mesh record into aligned (time, value) columns for a
// tabular writer, taking the first component of each step
func Table(rec *results.Record) (times, values []float64, err error) {
	if rec.Kind.IsMeshKind() {
		return nil, nil, fmt.Errorf("record %q is mesh data, not a scalar series", rec.Name)
	}
	if len(rec.Time) != len(rec.Values) {
		return nil, nil, fmt.Errorf("record %q: %d times for %d values",
			rec.Name, len(rec.Time), len(rec.Values))
	}
	times = append(times, rec.Time...)
	for _, row := range rec.Values {
		values = append(values, row[0])
	}
	return times, values, nil
}
