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
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"moldex/study"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moldex",
	Short: "Extract meshes and simulation results from injection molding studies",
	Long: `
moldex drives the vendor study tools to run, modify and export injection
molding studies, converting their meshes and results into XDMF and xlsx
artifacts readable by general post-processing tools.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.moldex.yaml)")
	rootCmd.PersistentFlags().StringP("moldflowPath", "M", "", "path to the Moldflow installation root")
	rootCmd.PersistentFlags().BoolP("metric", "u", true, "use Metric units (mm for length)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	viper.BindPFlag("moldflowPath", rootCmd.PersistentFlags().Lookup("moldflowPath"))
	viper.BindPFlag("metric", rootCmd.PersistentFlags().Lookup("metric"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".moldex")
	}

	viper.SetEnvPrefix("moldex")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// newAutomation builds the shared tool wrapper from config/flags
func newAutomation() (*study.Automation, error) {
	path := viper.GetString("moldflowPath")
	if path == "" {
		return nil, fmt.Errorf("must supply the Moldflow installation root (-M, --moldflowPath, or moldflowPath in $HOME/.moldex.yaml)")
	}
	a, err := study.NewAutomation(path, viper.GetBool("metric"))
	if err != nil {
		return nil, err
	}
	a.Verbose = !viper.GetBool("quiet")
	return a, nil
}
