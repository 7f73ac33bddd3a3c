/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

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
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/lingobot/internal/lang"
	"github.com/valpere/lingobot/internal/pipeline"
)

var (
	trInputFile  string
	trOutputFile string
	trSource     string
	trTarget     string
	trStrict     bool
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text through the English pivot",
	Long: `Translate text between any two supported languages without generating an
answer. Pairs that do not involve English are translated in two hops,
source → English → target.

If a hop fails the original text is written unchanged and a warning is
printed; use --strict to make that an error instead.

Example:
  lingobot translate -s es -t fr "¿Dónde está la biblioteca?"
  lingobot translate -i notes.md -o notes.uk.md -t uk`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if trInputFile != "" && trInputFile == trOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if !lang.IsSupported(trTarget) {
			return fmt.Errorf("unsupported target language %q", trTarget)
		}

		text := strings.Join(args, " ")
		if trInputFile != "" {
			data, err := os.ReadFile(trInputFile)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			text = string(data)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("nothing to translate")
		}

		ctx := cmd.Context()
		a := newApp()
		defer a.Close()

		p, err := a.pipeline(ctx, false)
		if err != nil {
			return err
		}

		src := lang.Normalize(trSource)
		if strings.EqualFold(trSource, pipeline.Auto) {
			if detected, ok := a.detector.DetectTag(text); ok {
				src = detected
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", src)
			}
		}

		res := p.Translate(ctx, text, src, lang.Normalize(trTarget))
		if res.Degraded() {
			if trStrict {
				return fmt.Errorf("translation failed: %w", res.Err)
			}
			printWarnings([]string{fmt.Sprintf("text was not translated: %v", res.Err)})
		}

		if trOutputFile == "" {
			fmt.Println(res.Text)
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(trOutputFile), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(trOutputFile, []byte(res.Text), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Translated %s to %s (%s, %d hops)\n", res.Source, res.Target, res.Status, res.Hops)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&trInputFile, "input", "i", "", "Input file to translate")
	translateCmd.Flags().StringVarP(&trOutputFile, "output", "o", "", "Output file (default: stdout)")
	translateCmd.Flags().StringVarP(&trSource, "source", "s", pipeline.Auto, "Source language code, or auto to detect it")
	translateCmd.Flags().StringVarP(&trTarget, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().BoolVar(&trStrict, "strict", false, "Fail instead of writing untranslated text")

	translateCmd.MarkFlagRequired("target")
}
