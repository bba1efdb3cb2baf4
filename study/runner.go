package study

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Runner executes studies through the runstudy tool
type Runner struct {
	*Automation
	Cmd CommandRunner
}

// NewRunner wraps an automation with the real exec runner
func NewRunner(a *Automation) *Runner {
	return &Runner{Automation: a, Cmd: ExecRunner{}}
}

// Check verifies that the runstudy tool answers with the vendor banner
func (r *Runner) Check(ctx context.Context) bool {
	raw, _ := r.Cmd.CombinedOutput(ctx, r.RunStudyExe())
	if !strings.Contains(decodeToolOutput(raw), "Moldflow") {
		r.printf("Verify that the given runstudy.exe works")
		return false
	}
	return true
}

// Run executes a study file, giving the solver a per-study temp directory
// next to it
func (r *Runner) Run(ctx context.Context, sdyfile string) error {
	name := strings.TrimSuffix(filepath.Base(sdyfile), filepath.Ext(sdyfile))
	tempDir := filepath.Join(filepath.Dir(sdyfile), "runsdytmp_"+name)

	args := []string{sdyfile, "-temp", tempDir}
	if r.UseMetricUnits {
		args = append(args, "-units", "Metric")
	}

	raw, err := r.Cmd.CombinedOutput(ctx, r.RunStudyExe(), args...)
	out := decodeToolOutput(raw)
	for _, line := range strings.Split(out, "\n") {
		r.printf("%s", strings.TrimSpace(line))
	}
	if err != nil {
		return fmt.Errorf("runstudy failed for %s: %v", sdyfile, err)
	}
	return nil
}
