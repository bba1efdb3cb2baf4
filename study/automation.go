// Package study drives the vendor study tools: running analyses, modifying
// study files and exporting meshes and results.
package study

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// CommandRunner abstracts vendor tool invocation so the orchestration can be
// tested without the tools installed
type CommandRunner interface {
	CombinedOutput(ctx context.Context, exe string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec
type ExecRunner struct{}

func (ExecRunner) CombinedOutput(ctx context.Context, exe string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, exe, args...).CombinedOutput()
}

// Automation holds what every tool wrapper needs: the install root, the
// units switch and a progress sink.
type Automation struct {
	MoldflowPath   string
	UseMetricUnits bool
	Verbose        bool
	Out            io.Writer
}

// NewAutomation validates a Moldflow install root by checking for the three
// tools under bin/
func NewAutomation(moldflowPath string, useMetricUnits bool) (*Automation, error) {
	a := &Automation{
		MoldflowPath:   moldflowPath,
		UseMetricUnits: useMetricUnits,
		Verbose:        true,
		Out:            os.Stdout,
	}
	for _, exe := range []string{a.StudyModExe(), a.RunStudyExe(), a.StudyRLTExe()} {
		if _, err := os.Stat(exe); err != nil {
			return nil, fmt.Errorf("missing tool %s: %v", exe, err)
		}
	}
	return a, nil
}

func (a *Automation) StudyModExe() string {
	return filepath.Join(a.MoldflowPath, "bin", "studymod.exe")
}

func (a *Automation) RunStudyExe() string {
	return filepath.Join(a.MoldflowPath, "bin", "runstudy.exe")
}

func (a *Automation) StudyRLTExe() string {
	return filepath.Join(a.MoldflowPath, "bin", "studyrlt.exe")
}

func (a *Automation) printf(format string, args ...interface{}) {
	if a.Verbose {
		fmt.Fprintf(a.Out, format+"\n", args...)
	}
}

// decodeToolOutput converts windows-1252 vendor tool output to UTF-8
func decodeToolOutput(raw []byte) string {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.TrimSpace(string(raw))
	}
	return strings.TrimSpace(string(decoded))
}

// removeSideFiles drops the .out/.err droppings the tools leave next to the
// study file
func removeSideFiles(sdyfile string) {
	for _, ext := range []string{".out", ".err"} {
		tmp := replaceExt(sdyfile, ext)
		if _, err := os.Stat(tmp); err == nil {
			os.Remove(tmp)
		}
	}
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
