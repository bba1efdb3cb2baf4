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

	"github.com/spf13/cobra"

	"moldex/study"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [study files]",
	Short: "Run studies through the vendor solver",
	Long: `
Runs each given study file (.sdy) through runstudy, placing the solver's
scratch files in a per-study temp directory next to the study. Results are
written back into the study file and can then be exported with the export
command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newAutomation()
		if err != nil {
			return err
		}
		r := study.NewRunner(a)

		ctx := context.Background()
		if !r.Check(ctx) {
			return fmt.Errorf("runstudy does not work, check the installation root")
		}
		if checkOnly, _ := cmd.Flags().GetBool("check"); checkOnly {
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("must supply at least one study file")
		}
		for _, sdyfile := range args {
			if err = r.Run(ctx, sdyfile); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("check", false, "only verify that the solver tools answer")
}
