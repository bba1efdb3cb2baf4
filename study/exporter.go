package study

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"moldex/chart"
	"moldex/fields"
	"moldex/mesh"
	"moldex/results"
	"moldex/xdmf"
)

// Exporter extracts meshes and results from a finished study through the
// studyrlt tool and writes them as XDMF and xlsx artifacts
type Exporter struct {
	*Automation
	Cmd CommandRunner

	SdyFile string
	OutDir  string // defaults next to OutFile, then next to SdyFile
	OutFile string // XDMF output; empty disables mesh/field writing

	Mesh     *mesh.Mesh
	CellKind mesh.CellType
}

// NewExporter wraps an automation with the real exec runner
func NewExporter(a *Automation, sdyfile, outfile string) *Exporter {
	return &Exporter{Automation: a, Cmd: ExecRunner{}, SdyFile: sdyfile, OutFile: outfile}
}

// ExportDir resolves the output directory
func (e *Exporter) ExportDir() string {
	switch {
	case e.OutDir != "":
		return e.OutDir
	case e.OutFile != "":
		return filepath.Dir(e.OutFile)
	default:
		return filepath.Dir(e.SdyFile)
	}
}

func (e *Exporter) rawDataDir() string {
	return filepath.Join(e.ExportDir(), "rawdata")
}

func (e *Exporter) interfacesDir() string {
	return filepath.Join(e.ExportDir(), "interfaces")
}

// ioName sanitizes a result name into a file name
func ioName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "/", "")
	return strings.ReplaceAll(name, ",", "")
}

// Check verifies that the studyrlt tool answers with the vendor banner
func (e *Exporter) Check(ctx context.Context) bool {
	e.printf("Checking that studyrlt works fine...")
	raw, _ := e.Cmd.CombinedOutput(ctx, e.StudyRLTExe())
	if !strings.Contains(decodeToolOutput(raw), "Autodesk") {
		e.printf("Verify that the given studyrlt.exe works")
		return false
	}
	return true
}

// runStudyRLT invokes studyrlt with the given action arguments, expecting a
// sibling output file with the given extension, and moves it into rawdata/
func (e *Exporter) runStudyRLT(ctx context.Context, action []string, outExt string) (string, error) {
	args := append([]string{e.SdyFile}, action...)
	if e.UseMetricUnits {
		args = append(args, "-unit", "Metric")
	}

	raw, err := e.Cmd.CombinedOutput(ctx, e.StudyRLTExe(), args...)
	if err != nil {
		return "", fmt.Errorf("unable to run studyrlt: %v", err)
	}
	if !strings.Contains(decodeToolOutput(raw), "Autodesk") {
		return "", fmt.Errorf("verify that the given studyrlt.exe works")
	}
	removeSideFiles(e.SdyFile)

	produced := replaceExt(e.SdyFile, outExt)
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("unable to retrieve studyrlt output %s", produced)
	}
	if err := os.MkdirAll(e.rawDataDir(), 0755); err != nil {
		return "", err
	}
	out := filepath.Join(e.rawDataDir(), filepath.Base(produced))
	if err := os.Rename(produced, out); err != nil {
		return "", err
	}
	return out, nil
}

// ExportLog exports the analysis log to log.txt in the output directory
func (e *Exporter) ExportLog(ctx context.Context) error {
	e.printf("Exporting log file...")
	produced, err := e.runStudyRLT(ctx, []string{"-exportoutput"}, ".txt")
	if err != nil {
		return err
	}
	return os.Rename(produced, filepath.Join(e.ExportDir(), "log.txt"))
}

// ExportMesh extracts the Patran mesh, normalizes it and retains a single
// cell kind (tetra when present, else triangle). The decoded mesh stays on
// the exporter for result projection.
func (e *Exporter) ExportMesh(ctx context.Context) error {
	pat := filepath.Join(e.rawDataDir(), "mesh.pat")
	if _, err := os.Stat(pat); err != nil {
		e.printf("Mesh: running studyrlt...")
		produced, err := e.runStudyRLT(ctx, []string{"-exportpatran"}, ".pat")
		if err != nil {
			return err
		}
		if err := os.Rename(produced, pat); err != nil {
			return err
		}
	} else {
		e.printf("Mesh: Patran file already generated")
	}

	e.printf("Mesh: reading Patran file...")
	m, err := mesh.ReadPatranFile(pat, mesh.Triangle, mesh.Tetra)
	if err != nil {
		return err
	}
	if e.UseMetricUnits {
		m.Scale(1e3) // m -> mm
	}

	// A mesh is either 3D tetra or 2D triangular; keep one block
	kind := mesh.Triangle
	if len(m.Cells[mesh.Tetra]) > 0 {
		kind = mesh.Tetra
	}
	m.KeepOnly(kind)

	e.Mesh, e.CellKind = m, kind
	return nil
}

// WriteMesh writes the current mesh and fields to the configured output file
func (e *Exporter) WriteMesh() error {
	if e.OutFile == "" || e.Mesh == nil {
		return nil
	}
	if err := os.MkdirAll(e.ExportDir(), 0755); err != nil {
		return err
	}
	return xdmf.WriteMeshFile(e.OutFile, e.Mesh, e.CellKind)
}

// ExportResult extracts one result by id, projecting mesh-kind records onto
// the mesh (one field per time step) and writing non-mesh records as an
// xlsx series. The decoded record is returned for callers that want the
// arrays.
func (e *Exporter) ExportResult(ctx context.Context, resultID int, name string, onlyLastStep bool) (*results.Record, error) {
	xml := filepath.Join(e.rawDataDir(), ioName(name)+".xml")
	if _, err := os.Stat(xml); err != nil {
		e.printf("%s: running studyrlt...", name)
		produced, err := e.runStudyRLT(ctx, []string{"-xml", fmt.Sprintf("%d", resultID)}, ".xml")
		if err != nil {
			return nil, err
		}
		if err := os.Rename(produced, xml); err != nil {
			return nil, err
		}
	} else {
		e.printf("%s: XML file already generated", name)
	}

	e.printf("%s: parsing XML...", name)
	rec, ok := results.DecodeFile(xml, onlyLastStep)
	if !ok {
		return nil, fmt.Errorf("%s: unable to decode result XML", name)
	}
	rec.Name = name

	if !rec.Kind.IsMeshKind() {
		times, values, err := fields.Table(rec)
		if err != nil {
			return nil, err
		}
		out := filepath.Join(e.ExportDir(), ioName(name)+".xlsx")
		if err := chart.WriteSeries(out, name, rec.Unit, times, values); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if e.Mesh == nil {
		return nil, fmt.Errorf("%s: mesh must be exported before mesh-kind results", name)
	}
	projector := fields.NewProjector(e.Mesh, e.CellKind)
	names, err := projector.Attach(rec)
	if err != nil {
		return nil, err
	}
	for i, fieldName := range names {
		if rec.Time != nil {
			e.printf("%s: projected time-step #%d/%d as %s", name, i+1, len(names), fieldName)
		}
	}
	return rec, e.WriteMesh()
}

// Finalize post-processes the output file, regrouping it as a time series
func (e *Exporter) Finalize() error {
	if e.OutFile == "" || !strings.HasSuffix(e.OutFile, ".xdmf") {
		return nil
	}
	if _, err := os.Stat(e.OutFile); err != nil {
		return nil
	}
	return xdmf.ConvertToTimeSeriesFile(e.OutFile, "")
}
