package results

import "strings"

// Kind classifies a result record by what its values attach to
type Kind int

const (
	NodeData Kind = iota
	ElementData
	NonMeshData
)

func (k Kind) String() string {
	return [...]string{"NodeData", "ElementData", "NonMeshData"}[k]
}

// IsMeshKind reports whether values attach to mesh entities
func (k Kind) IsMeshKind() bool {
	return k != NonMeshData
}

// parseKind recognizes the DataType tags used by the result schema, e.g.
// "NDDT(Node data)", "ELDT(Element data)", "NMDT(Non-mesh data)"
func parseKind(tag string) (Kind, bool) {
	switch {
	case strings.HasPrefix(tag, "NDDT"):
		return NodeData, true
	case strings.HasPrefix(tag, "ELDT"):
		return ElementData, true
	case strings.HasPrefix(tag, "NMDT"):
		return NonMeshData, true
	}
	return 0, false
}

// Record is one decoded simulation result.
//
// For mesh kinds, Steps holds one external-id -> component-row map per value
// block. For non-mesh kinds, Values holds one component array per block.
// Time is populated for every non-mesh record (length = block count) and for
// mesh records only when more than one block was decoded; otherwise it is
// nil and the record is single-step.
type Record struct {
	Name       string
	Kind       Kind
	Unit       string
	Components int

	Time   []float64
	Steps  []map[int][]float64
	Values [][]float64
}

// NumSteps returns the number of decoded value blocks
func (r *Record) NumSteps() int {
	if r.Kind.IsMeshKind() {
		return len(r.Steps)
	}
	return len(r.Values)
}
