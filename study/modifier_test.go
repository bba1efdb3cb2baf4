package study

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
)

const tcodeYAML = `Process controller:
  ID: 30011
  Mold temperature: 310
  Melt temperature: 320
Filling control:
  ID: 30012
  Injection time: 501
`

const materialYAML = `PP: 405
ABS: 620
`

func testTables(t *testing.T) *Tables {
	t.Helper()
	dir := t.TempDir()
	tcodes := filepath.Join(dir, "tcodedata.yaml")
	materials := filepath.Join(dir, "materials.yaml")
	assert.NoError(t, os.WriteFile(tcodes, []byte(tcodeYAML), 0644))
	assert.NoError(t, os.WriteFile(materials, []byte(materialYAML), 0644))

	tables, err := LoadTables(tcodes, materials)
	assert.NoError(t, err)
	return tables
}

func quietAutomation(metric bool) *Automation {
	return &Automation{UseMetricUnits: metric, Out: io.Discard}
}

func TestLoadTables(t *testing.T) {
	tables := testTables(t)

	set, setID, tcodeID, err := tables.FindParameter("Melt temperature")
	assert.NoError(t, err)
	assert.Equal(t, "Process controller", set)
	assert.Equal(t, 30011, setID)
	assert.Equal(t, 320, tcodeID)

	_, _, _, err = tables.FindParameter("No such knob")
	assert.Error(t, err)

	id, err := tables.FindMaterial("ABS")
	assert.NoError(t, err)
	assert.Equal(t, 620, id)
	_, err = tables.FindMaterial("Unobtainium")
	assert.Error(t, err)
}

func TestModifierXML(t *testing.T) {
	m := NewModifier(quietAutomation(true), testTables(t))
	assert.NoError(t, m.AddParameter("Melt temperature", []float64{240}))
	assert.NoError(t, m.AddParameter("Injection time", []float64{0.5, 1}, []float64{0.8, 2}))
	assert.NoError(t, m.DefineMaterial("PP"))

	s, err := m.ModifierXML()
	assert.NoError(t, err)

	doc := etree.NewDocument()
	assert.NoError(t, doc.ReadFromString(s))
	root := doc.Root()
	assert.Equal(t, "StudyMod", root.Tag)
	assert.Equal(t, "Autodesk StudyMod", root.SelectAttrValue("title", ""))
	assert.Equal(t, "Metric", root.SelectElement("UnitSystem").Text())

	tsets := root.FindElements("Property/TSet")
	assert.Equal(t, 2, len(tsets))
	assert.Equal(t, "30011", tsets[0].SelectElement("ID").Text())
	assert.Equal(t, "1", tsets[0].SelectElement("SubID").Text())

	tcode := tsets[0].SelectElement("TCode")
	assert.Equal(t, "320", tcode.SelectElement("ID").Text())
	assert.Equal(t, "Melt temperature", tcode.SelectElement("Description").Text())
	assert.Equal(t, "240", tcode.SelectElement("Value").Text())

	// Multi-row parameter writes one Value element per row
	values := tsets[1].FindElements("TCode/Value")
	assert.Equal(t, 2, len(values))
	assert.Equal(t, "0.5 1", values[0].Text())
	assert.Equal(t, "0.8 2", values[1].Text())

	assert.Equal(t, "405", root.SelectElement("Material").SelectAttrValue("ID", ""))
}

func TestModifierUnknownParameter(t *testing.T) {
	m := NewModifier(quietAutomation(false), testTables(t))
	assert.Error(t, m.AddParameter("No such knob", []float64{1}))

	s, err := m.ModifierXML()
	assert.NoError(t, err)
	assert.NotContains(t, s, "Property")
	assert.NotContains(t, s, "UnitSystem")
}

// fakeRunner records invocations and mimics tool behavior
type fakeRunner struct {
	output []byte
	calls  [][]string
	onRun  func(exe string, args []string)
}

func (f *fakeRunner) CombinedOutput(_ context.Context, exe string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{exe}, args...))
	if f.onRun != nil {
		f.onRun(exe, args)
	}
	return f.output, nil
}

func TestModifierApply(t *testing.T) {
	dir := t.TempDir()
	sdy := filepath.Join(dir, "part.sdy")
	out := filepath.Join(dir, "part_mod.sdy")
	assert.NoError(t, os.WriteFile(sdy, []byte("study"), 0644))

	runner := &fakeRunner{
		output: []byte("Autodesk StudyMod banner"),
		onRun: func(exe string, args []string) {
			os.WriteFile(args[1], []byte("modified"), 0644)
		},
	}
	m := NewModifier(quietAutomation(true), testTables(t))
	m.Cmd = runner
	assert.NoError(t, m.AddParameter("Mold temperature", []float64{60}))

	assert.NoError(t, m.Apply(context.Background(), sdy, out, true))
	assert.Equal(t, 1, len(runner.calls))
	assert.Equal(t, sdy, runner.calls[0][1])
	assert.Equal(t, out, runner.calls[0][2])

	// exportModifier keeps the request next to the output
	_, err := os.Stat(replaceExt(out, ".xml"))
	assert.NoError(t, err)
}

func TestModifierApplyBadBanner(t *testing.T) {
	dir := t.TempDir()
	sdy := filepath.Join(dir, "part.sdy")
	assert.NoError(t, os.WriteFile(sdy, []byte("study"), 0644))

	m := NewModifier(quietAutomation(false), testTables(t))
	m.Cmd = &fakeRunner{output: []byte("command not found")}
	err := m.Apply(context.Background(), sdy, filepath.Join(dir, "out.sdy"), false)
	assert.Error(t, err)
}

func TestWriteMPI(t *testing.T) {
	dir := t.TempDir()
	mpi := filepath.Join(dir, "project.mpi")

	assert.NoError(t, WriteMPI(mpi, filepath.Join(dir, "first.sdy")))
	data, err := os.ReadFile(mpi)
	assert.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "VERSION 1.0")
	assert.Contains(t, content, `BEGIN PROJECT "project"`)
	assert.Contains(t, content, `STUDY "first" first.sdy`)

	// Appending inserts before END PROJECT, keeping the first study
	assert.NoError(t, WriteMPI(mpi, filepath.Join(dir, "second.sdy")))
	data, err = os.ReadFile(mpi)
	assert.NoError(t, err)
	content = string(data)
	assert.Contains(t, content, `STUDY "first" first.sdy`)
	assert.Contains(t, content, `STUDY "second" second.sdy`)
	assert.Less(t,
		strings.Index(content, `STUDY "second"`),
		strings.Index(content, "END PROJECT"))
	assert.Equal(t, 1, strings.Count(content, "END PROJECT"))
}
