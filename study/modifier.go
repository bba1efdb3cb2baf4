package study

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Modifier builds a StudyMod modification request and applies it to a study
// file through the studymod tool
type Modifier struct {
	*Automation
	Cmd    CommandRunner
	tables *Tables

	doc  *etree.Document
	root *etree.Element
	prop *etree.Element // lazily created Property element
}

// NewModifier starts an empty modification request
func NewModifier(a *Automation, tables *Tables) *Modifier {
	m := &Modifier{Automation: a, Cmd: ExecRunner{}, tables: tables}
	m.doc = etree.NewDocument()
	m.doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	m.root = m.doc.CreateElement("StudyMod")
	m.root.CreateAttr("title", "Autodesk StudyMod")
	m.root.CreateAttr("ver", "1.00")
	if a.UseMetricUnits {
		m.root.CreateElement("UnitSystem").SetText("Metric")
	}
	return m
}

// AddParameter adds a parameter modification, looked up by name in the
// tcode tables. Each row becomes one Value element; pass a single
// single-element row for scalars.
func (m *Modifier) AddParameter(name string, rows ...[]float64) error {
	_, setID, tcodeID, err := m.tables.FindParameter(name)
	if err != nil {
		m.printf("%v", err)
		return err
	}

	if m.prop == nil {
		m.prop = m.root.CreateElement("Property")
	}
	tset := m.prop.CreateElement("TSet")
	tset.CreateElement("ID").SetText(strconv.Itoa(setID))
	tset.CreateElement("SubID").SetText("1")

	tcode := tset.CreateElement("TCode")
	tcode.CreateElement("ID").SetText(strconv.Itoa(tcodeID))
	tcode.CreateElement("Description").SetText(name)
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		tcode.CreateElement("Value").SetText(strings.Join(parts, " "))
	}
	return nil
}

// DefineMaterial sets the injection material by database name
func (m *Modifier) DefineMaterial(name string) error {
	id, err := m.tables.FindMaterial(name)
	if err != nil {
		m.printf("%v", err)
		return err
	}
	material := m.root.CreateElement("Material")
	material.CreateAttr("ID", strconv.Itoa(id))
	return nil
}

// ModifierXML serializes the modification request
func (m *Modifier) ModifierXML() (string, error) {
	m.doc.Indent(2)
	return m.doc.WriteToString()
}

// WriteModifierFile writes the modification request to an XML file
func (m *Modifier) WriteModifierFile(path string) error {
	s, err := m.ModifierXML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

// Apply runs studymod to produce outfile from sdyfile under this request.
// With exportModifier set, the request XML is kept next to the output.
func (m *Modifier) Apply(ctx context.Context, sdyfile, outfile string, exportModifier bool) error {
	modifierFile := replaceExt(outfile, ".xml")
	if !exportModifier {
		tmp, err := os.CreateTemp("", "studymod-*.xml")
		if err != nil {
			return err
		}
		tmp.Close()
		modifierFile = tmp.Name()
		defer os.Remove(modifierFile)
	}
	if err := m.WriteModifierFile(modifierFile); err != nil {
		return err
	}

	raw, err := m.Cmd.CombinedOutput(ctx, m.StudyModExe(), sdyfile, outfile, modifierFile)
	if err != nil {
		return fmt.Errorf("unable to run studymod: %v", err)
	}
	if !strings.Contains(decodeToolOutput(raw), "Autodesk") {
		return fmt.Errorf("verify that the given studymod.exe works")
	}
	removeSideFiles(sdyfile)

	if _, err := os.Stat(outfile); err != nil {
		return fmt.Errorf("unable to generate output file %s", outfile)
	}
	return nil
}

// WriteMPI creates a project file referencing the study, or appends the
// study to an existing one
func WriteMPI(mpifile, sdyfile string) error {
	mpiName := strings.TrimSuffix(filepath.Base(mpifile), filepath.Ext(mpifile))
	sdyBase := filepath.Base(sdyfile)
	sdyName := strings.TrimSuffix(sdyBase, filepath.Ext(sdyBase))
	studyLine := fmt.Sprintf("STUDY %q %s\n", sdyName, sdyBase)

	data, err := os.ReadFile(mpifile)
	if os.IsNotExist(err) {
		var sb strings.Builder
		sb.WriteString("VERSION 1.0\n")
		fmt.Fprintf(&sb, "BEGIN PROJECT %q\n", mpiName)
		sb.WriteString(studyLine)
		sb.WriteString("END PROJECT\n")
		sb.WriteString("ORGANIZE 0\n")
		sb.WriteString("BEGIN PROPERTIES\n")
		sb.WriteString("END PROPERTIES\n")
		return os.WriteFile(mpifile, []byte(sb.String()), 0644)
	}
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, line := range strings.SplitAfter(string(data), "\n") {
		if strings.HasPrefix(line, "END PROJECT") {
			sb.WriteString(studyLine)
		}
		sb.WriteString(line)
	}
	return os.WriteFile(mpifile, []byte(sb.String()), 0644)
}
