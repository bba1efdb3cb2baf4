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
	"encoding/json"
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"moldex/study"
)

// paramRows holds the value rows of one parameter modification. In the job
// file a parameter may be given as a scalar, a single row, or a list of rows.
type paramRows [][]float64

func (p *paramRows) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*p = paramRows{{scalar}}
		return nil
	}
	var row []float64
	if err := json.Unmarshal(data, &row); err == nil {
		*p = paramRows{row}
		return nil
	}
	var rows [][]float64
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	*p = rows
	return nil
}

// modifyJob describes one study modification read from a YAML job file
type modifyJob struct {
	Study      string               `json:"study"`
	Output     string               `json:"output"`
	Material   string               `json:"material,omitempty"`
	Parameters map[string]paramRows `json:"parameters,omitempty"`
	MPI        string               `json:"mpi,omitempty"`
}

func loadJob(path string) (*modifyJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	job := &modifyJob{}
	if err = yaml.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("parsing %s: %v", path, err)
	}
	if job.Study == "" || job.Output == "" {
		return nil, fmt.Errorf("%s must name both a study and an output file", path)
	}
	return job, nil
}

// modifyCmd represents the modify command
var modifyCmd = &cobra.Command{
	Use:   "modify [job files]",
	Short: "Derive new studies by modifying process parameters and materials",
	Long: `
Builds a StudyMod modification request from each YAML job file and applies
it to the named study through studymod, producing a new study file. A job
file names the input study, the output study and the changes to make:

    study: base.sdy
    output: hot.sdy
    material: "PP 108MF10"
    parameters:
      Melt temperature: 240
      Velocity/pressure switch-over by percent volume: 98

Parameter names are resolved through the tcode table; multi-column table
parameters take a list of rows instead of a scalar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("must supply at least one job file")
		}

		tcodeFile, _ := cmd.Flags().GetString("tcodes")
		materialFile, _ := cmd.Flags().GetString("materials")
		tables, err := study.LoadTables(tcodeFile, materialFile)
		if err != nil {
			return err
		}

		a, err := newAutomation()
		if err != nil {
			return err
		}
		exportModifier, _ := cmd.Flags().GetBool("exportModifier")

		ctx := context.Background()
		for _, jobFile := range args {
			job, err := loadJob(jobFile)
			if err != nil {
				return err
			}

			m := study.NewModifier(a, tables)
			if job.Material != "" {
				if err = m.DefineMaterial(job.Material); err != nil {
					return err
				}
			}
			for name, rows := range job.Parameters {
				if err = m.AddParameter(name, rows...); err != nil {
					return err
				}
			}
			if err = m.Apply(ctx, job.Study, job.Output, exportModifier); err != nil {
				return err
			}
			if job.MPI != "" {
				if err = study.WriteMPI(job.MPI, job.Output); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modifyCmd)
	modifyCmd.Flags().String("tcodes", "data/tcodedata.yaml", "YAML table mapping parameter names to tcode ids")
	modifyCmd.Flags().String("materials", "data/materials.yaml", "YAML table mapping material names to database ids")
	modifyCmd.Flags().Bool("exportModifier", false, "keep the StudyMod request XML next to the output study")
}
