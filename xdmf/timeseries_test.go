package xdmf

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
)

// snapshotDoc builds a flat single-grid XDMF document carrying the given
// attribute names
func snapshotDoc(attrNames ...string) *etree.Document {
	doc := etree.NewDocument()
	xdmf := doc.CreateElement("Xdmf")
	domain := xdmf.CreateElement("Domain")
	grid := domain.CreateElement("Grid")
	grid.CreateAttr("Name", GridName)
	grid.CreateAttr("GridType", "Uniform")
	geom := grid.CreateElement("Geometry")
	geom.CreateAttr("GeometryType", "XYZ")
	topo := grid.CreateElement("Topology")
	topo.CreateAttr("TopologyType", "Tetrahedron")
	for _, name := range attrNames {
		attr := grid.CreateElement("Attribute")
		attr.CreateAttr("Name", name)
		attr.CreateAttr("Center", "Node")
		data := attr.CreateElement("DataItem")
		data.SetText(name) // marker to identify the copied payload
	}
	return doc
}

// attrPayload returns the payload marker of the attribute named name in grid
func attrPayload(grid *etree.Element, name string) string {
	for _, attr := range grid.SelectElements("Attribute") {
		if attr.SelectAttrValue("Name", "") == name {
			return attr.SelectElement("DataItem").Text()
		}
	}
	return ""
}

func TestAssembleSelectionPolicy(t *testing.T) {
	doc := snapshotDoc(
		"F__0.0", "F__1.0", "F__2.0",
		"G__-0.5", "G__1.5",
		"Material", // time-invariant
	)
	assert.True(t, Assemble(doc))

	collection := doc.FindElement("//Domain/Grid")
	assert.Equal(t, "TimeSeries", collection.SelectAttrValue("Name", ""))
	assert.Equal(t, "Collection", collection.SelectAttrValue("GridType", ""))
	assert.Equal(t, "Temporal", collection.SelectAttrValue("CollectionType", ""))

	grids := collection.SelectElements("Grid")
	assert.Equal(t, 5, len(grids)) // union of suffixes: -0.5, 0.0, 1.0, 1.5, 2.0

	times := make([]string, len(grids))
	for i, g := range grids {
		times[i] = g.SelectElement("Time").SelectAttrValue("Value", "")
	}
	assert.Equal(t, []string{"-0.5", "0.0", "1.0", "1.5", "2.0"}, times)

	byTime := make(map[string]*etree.Element)
	for _, g := range grids {
		byTime[g.SelectElement("Time").SelectAttrValue("Value", "")] = g
	}

	// t=1.5: no exact F sample, greatest below is 1.0
	assert.Equal(t, "F__1.0", attrPayload(byTime["1.5"], "F"))
	// t=-0.5: nothing below, earliest available is 0.0
	assert.Equal(t, "F__0.0", attrPayload(byTime["-0.5"], "F"))
	// Exact matches win
	assert.Equal(t, "F__2.0", attrPayload(byTime["2.0"], "F"))
	assert.Equal(t, "G__1.5", attrPayload(byTime["1.5"], "G"))

	// Time-invariant fragments repeat identically in every group
	for _, g := range grids {
		assert.Equal(t, "Material", attrPayload(g, "Material"))
	}
}

func TestAssembleEmbedsSharedMesh(t *testing.T) {
	doc := snapshotDoc("F__0.0", "F__1.0")
	assert.True(t, Assemble(doc))

	for _, g := range doc.FindElements("//Domain/Grid/Grid") {
		assert.NotNil(t, g.SelectElement("Geometry"))
		assert.NotNil(t, g.SelectElement("Topology"))
		assert.Equal(t, GridName, g.SelectAttrValue("Name", ""))
	}

	// The flat snapshot grid is gone, only the collection remains
	domain := doc.FindElement("//Domain")
	assert.Equal(t, 1, len(domain.ChildElements()))
}

func TestAssembleNoSuffixesLeavesSnapshot(t *testing.T) {
	doc := snapshotDoc("Temperature", "Pressure")
	assert.False(t, Assemble(doc))

	grid := doc.FindElement("//Domain/Grid")
	assert.Equal(t, "Uniform", grid.SelectAttrValue("GridType", ""))
	assert.Equal(t, 2, len(grid.SelectElements("Attribute")))
}

func TestAssembleRenamesChosenFragment(t *testing.T) {
	doc := snapshotDoc("F__0.0")
	assert.True(t, Assemble(doc))

	grid := doc.FindElement("//Domain/Grid/Grid")
	attrs := grid.SelectElements("Attribute")
	assert.Equal(t, 1, len(attrs))
	assert.Equal(t, "F", attrs[0].SelectAttrValue("Name", ""))
	assert.Equal(t, "F__0.0", attrs[0].SelectElement("DataItem").Text())
}

func TestConvertToTimeSeriesFile(t *testing.T) {
	doc := snapshotDoc("F__0.0", "F__1.0")
	tmp := t.TempDir() + "/out.xdmf"
	assert.NoError(t, doc.WriteToFile(tmp))

	assert.NoError(t, ConvertToTimeSeriesFile(tmp, ""))

	reread := etree.NewDocument()
	assert.NoError(t, reread.ReadFromFile(tmp))
	collection := reread.FindElement("//Domain/Grid")
	assert.Equal(t, "Temporal", collection.SelectAttrValue("CollectionType", ""))
	assert.Equal(t, 2, len(collection.SelectElements("Grid")))
}
