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

	"github.com/spf13/cobra"

	"github.com/khorshidlab/divantran/internal/glossary"
)

var glossaryPath string

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Show the terminology glossary in force",
	Long: `Print the glossary the pipeline enforces: each Persian term with its
transliteration, canonical English rendering, and gloss. Pass --glossary
to validate and show a custom glossary file instead of the built-in
Safi-approach glossary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gloss := glossary.Default()
		source := "built-in"
		if glossaryPath != "" {
			var err error
			gloss, err = glossary.Load(glossaryPath)
			if err != nil {
				return err
			}
			source = glossaryPath
		}

		fmt.Printf("Glossary (%s): %d terms\n\n", source, gloss.Len())
		fmt.Print(gloss.PromptLines())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.Flags().StringVar(&glossaryPath, "glossary", "", "Glossary YAML file to validate and show")
}
