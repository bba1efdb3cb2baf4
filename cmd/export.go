/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"moldex/study"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the mesh and selected results of a finished study",
	Long: `
Exports the Patran mesh and the requested simulation results of a finished
study. Mesh-kind results become fields of an XDMF output file (one field
per time step for transient results); non-mesh results become xlsx charts.

Results are selected as id:name pairs, e.g.

    moldex export -F part.sdy -o part.xdmf -r 1400:"Fill time" -r 1710:"Clamp force"

Result ids are listed in the results.dat of the vendor installation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sdyFile, _ := cmd.Flags().GetString("sdyFile")
		outFile, _ := cmd.Flags().GetString("outFile")
		if sdyFile == "" {
			return fmt.Errorf("must supply a study file (-F, --sdyFile)")
		}

		a, err := newAutomation()
		if err != nil {
			return err
		}
		e := study.NewExporter(a, sdyFile, outFile)
		e.OutDir, _ = cmd.Flags().GetString("outDir")

		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
		}

		ctx := context.Background()
		if !e.Check(ctx) {
			return fmt.Errorf("studyrlt does not work, check the installation root")
		}

		if withLog, _ := cmd.Flags().GetBool("log"); withLog {
			if err = e.ExportLog(ctx); err != nil {
				return err
			}
		}

		if err = e.ExportMesh(ctx); err != nil {
			return err
		}
		if err = e.WriteMesh(); err != nil {
			return err
		}

		onlyLast, _ := cmd.Flags().GetBool("onlyLastStep")
		selections, _ := cmd.Flags().GetStringArray("result")
		for _, sel := range selections {
			id, name, err := parseResultSelection(sel)
			if err != nil {
				return err
			}
			if _, err = e.ExportResult(ctx, id, name, onlyLast); err != nil {
				fmt.Fprintf(os.Stderr, "error: %s\n", err)
			}
		}

		return e.Finalize()
	},
}

// parseResultSelection splits an "id:name" result selection
func parseResultSelection(sel string) (int, string, error) {
	idStr, name, found := strings.Cut(sel, ":")
	if !found || name == "" {
		return 0, "", fmt.Errorf("result selection %q is not of the form id:name", sel)
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, "", fmt.Errorf("result selection %q: %v", sel, err)
	}
	return id, name, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("sdyFile", "F", "", "study file (.sdy) containing simulation results")
	exportCmd.Flags().StringP("outFile", "o", "", "XDMF output file for the mesh and its fields")
	exportCmd.Flags().StringP("outDir", "d", "", "output directory (default: next to the output or study file)")
	exportCmd.Flags().StringArrayP("result", "r", nil, "result to export as id:name, repeatable")
	exportCmd.Flags().BoolP("onlyLastStep", "l", true, "keep only the last time step of transient results")
	exportCmd.Flags().Bool("log", false, "also export the analysis log")
	exportCmd.Flags().Bool("profile", false, "write a CPU profile of the export")
}
