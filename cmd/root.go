/*
Copyright © 2026 Khorshid Lab

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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "2.0.0"

var (
	cfgFile string
	dbPath  string
)

var rootCmd = &cobra.Command{
	Use:   "divantran",
	Short: "Scholarly translation pipeline for Rumi's Divan-e Kabir",
	Long: `divantran translates ghazals from Rumi's Divan-e Kabir (Persian) into
annotated English through a four-pass LLM pipeline: analysis, literal
translation, poetic refinement, and quality assurance.

The translation approach preserves Islamic and Sufi context rather than
universalizing it, following the scholarship of Omid Safi. Every
completed translation is published; low-confidence results are flagged
for human review, never withheld.

Use "divantran translate --help" for pipeline options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.divantran.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "divantran.db", "SQLite database path")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}

// initConfig reads the config file and DIVANTRAN_* environment variables.
// Flags set explicitly on the command line win over both.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".divantran")
	}

	viper.SetEnvPrefix("DIVANTRAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}

	if !rootCmd.PersistentFlags().Changed("db") && viper.IsSet("db") {
		dbPath = viper.GetString("db")
	}
}
