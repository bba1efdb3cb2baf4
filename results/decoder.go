package results

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

// Sentinel magnitude above which the source format means "not available"
const sentinel = 1e29

// DecodeFile decodes a result XML file. See Decode.
func DecodeFile(filename string, onlyLastStep bool) (*Record, bool) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, false
	}
	defer file.Close()
	return Decode(file, onlyLastStep)
}

// Decode reads a result XML document into a Record.
//
// With onlyLastStep set, mesh-kind records keep only the final value block;
// the trim happens before time-axis construction, so such records come back
// single-step. Any structural failure, malformed XML included, yields
// (nil, false) rather than an error or panic: the input is semi-trusted
// vendor output and the caller only needs a success flag.
func Decode(r io.Reader, onlyLastStep bool) (*Record, bool) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, false
	}
	root := doc.Root()
	if root == nil {
		return nil, false
	}

	// The dataset is the root's second child element
	children := root.ChildElements()
	if len(children) < 2 {
		return nil, false
	}
	dataset := children[1]

	rec := &Record{Name: strings.TrimSpace(dataset.SelectAttrValue("Name", ""))}

	dataType := dataset.SelectElement("DataType")
	if dataType == nil {
		return nil, false
	}
	kind, ok := parseKind(strings.TrimSpace(dataType.Text()))
	if !ok {
		return nil, false
	}
	rec.Kind = kind

	deptVar := dataset.SelectElement("DeptVar")
	if deptVar == nil {
		return nil, false
	}
	rec.Unit = deptVar.SelectAttrValue("Unit", "")

	numComp := dataset.SelectElement("NumberOfComponents")
	if numComp == nil {
		return nil, false
	}
	components, err := strconv.Atoi(strings.TrimSpace(numComp.Text()))
	if err != nil || components < 1 {
		return nil, false
	}
	rec.Components = components

	var blocks []*etree.Element
	if kind.IsMeshKind() {
		blocks = dataset.FindElements("Blocks/Block/Data")
		if onlyLastStep && len(blocks) > 1 {
			blocks = blocks[len(blocks)-1:]
		}
	} else {
		blocks = dataset.FindElements("Blocks/Block/DeptValues")
	}
	if len(blocks) == 0 {
		return nil, false
	}

	// Non-mesh records always carry a time axis; mesh records only when
	// multiple blocks survive
	if !kind.IsMeshKind() || len(blocks) > 1 {
		rec.Time = make([]float64, len(blocks))
		for i, block := range blocks {
			rec.Time[i] = blockTime(block)
		}
	}

	for _, block := range blocks {
		if kind.IsMeshKind() {
			step := make(map[int][]float64)
			for _, val := range block.ChildElements() {
				id, err := strconv.Atoi(strings.TrimSpace(val.SelectAttrValue("ID", "")))
				if err != nil {
					continue
				}
				dept := val.SelectElement("DeptValues")
				if dept == nil {
					continue
				}
				step[id] = parseComponents(dept.Text(), components)
			}
			rec.Steps = append(rec.Steps, step)
		} else {
			rec.Values = append(rec.Values, parseComponents(block.Text(), components))
		}
	}
	return rec, true
}

// blockTime reads the time value from the sibling element two positions
// before the block in document order, "not available" when the lookup
// fails structurally
func blockTime(block *etree.Element) float64 {
	parent := block.Parent()
	if parent == nil {
		return math.NaN()
	}
	siblings := parent.ChildElements()
	for i, sib := range siblings {
		if sib == block {
			if i < 2 {
				break
			}
			attr := siblings[i-2].SelectAttr("Value")
			if attr == nil {
				break
			}
			if t, err := strconv.ParseFloat(strings.TrimSpace(attr.Value), 64); err == nil {
				return t
			}
			break
		}
	}
	return math.NaN()
}

// parseComponents reads a whitespace-separated component array, truncating
// or NaN-padding to the declared width and masking sentinel magnitudes
func parseComponents(text string, components int) []float64 {
	fields := strings.Fields(text)
	out := make([]float64, components)
	for i := 0; i < components; i++ {
		if i >= len(fields) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || math.Abs(v) > sentinel {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// charsetReader handles the windows-1252 declarations the vendor tools emit
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return input, nil
}
