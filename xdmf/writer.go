// Package xdmf writes meshes with attached fields as XDMF documents and
// regroups flat snapshot files into temporal collections.
package xdmf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"moldex/mesh"
)

// GridName labels the uniform grids this package emits
const GridName = "Moldflow results"

var topologyType = map[mesh.CellType]string{
	mesh.Line:       "Polyline",
	mesh.Triangle:   "Triangle",
	mesh.Quad:       "Quadrilateral",
	mesh.Tetra:      "Tetrahedron",
	mesh.Hexahedron: "Hexahedron",
}

// WriteMesh builds an XDMF document for the mesh, its retained cell block
// and every attached point and cell field (inline DataItems)
func WriteMesh(m *mesh.Mesh, kind mesh.CellType) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0"`)
	xdmf := doc.CreateElement("Xdmf")
	xdmf.CreateAttr("Version", "3.0")
	domain := xdmf.CreateElement("Domain")

	grid := domain.CreateElement("Grid")
	grid.CreateAttr("Name", GridName)
	grid.CreateAttr("GridType", "Uniform")

	geometry := grid.CreateElement("Geometry")
	geometry.CreateAttr("GeometryType", "XYZ")
	geomData := geometry.CreateElement("DataItem")
	geomData.CreateAttr("Dimensions", fmt.Sprintf("%d 3", m.NumPoints()))
	geomData.CreateAttr("Format", "XML")
	geomData.SetText(formatPoints(m.Points))

	cells := m.Cells[kind]
	topology := grid.CreateElement("Topology")
	topology.CreateAttr("TopologyType", topologyType[kind])
	topology.CreateAttr("NumberOfElements", strconv.Itoa(len(cells)))
	topoData := topology.CreateElement("DataItem")
	topoData.CreateAttr("Dimensions", fmt.Sprintf("%d %d", len(cells), kind.NumVerts()))
	topoData.CreateAttr("DataType", "Int")
	topoData.CreateAttr("Format", "XML")
	topoData.SetText(formatCells(cells))

	for _, name := range sortedFieldNames(m.PointFields) {
		appendAttribute(grid, name, "Node", m.PointFields[name])
	}
	for _, name := range sortedFieldNames(m.CellFields) {
		appendAttribute(grid, name, "Cell", m.CellFields[name])
	}

	doc.Indent(2)
	return doc
}

// WriteMeshFile writes the mesh as an XDMF file
func WriteMeshFile(filename string, m *mesh.Mesh, kind mesh.CellType) error {
	return WriteMesh(m, kind).WriteToFile(filename)
}

func appendAttribute(grid *etree.Element, name, center string, f *mesh.Field) {
	attr := grid.CreateElement("Attribute")
	attr.CreateAttr("Name", name)
	attr.CreateAttr("AttributeType", attributeType(f.Components))
	attr.CreateAttr("Center", center)
	data := attr.CreateElement("DataItem")
	data.CreateAttr("Dimensions", fmt.Sprintf("%d %d", f.Len(), f.Components))
	data.CreateAttr("Format", "XML")
	data.SetText(formatFloats(f.Data, f.Components))
}

func attributeType(components int) string {
	switch components {
	case 1:
		return "Scalar"
	case 3:
		return "Vector"
	case 6:
		return "Tensor6"
	}
	return "Matrix"
}

func formatPoints(points [][]float64) string {
	var sb strings.Builder
	for _, p := range points {
		sb.WriteString("\n")
		for j, v := range p {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func formatCells(cells [][]int) string {
	var sb strings.Builder
	for _, cell := range cells {
		sb.WriteString("\n")
		for j, v := range cell {
			if j > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(strconv.Itoa(v))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

func formatFloats(data []float64, stride int) string {
	var sb strings.Builder
	for i, v := range data {
		if i%stride == 0 {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	sb.WriteString("\n")
	return sb.String()
}

func sortedFieldNames(fields map[string]*mesh.Field) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
