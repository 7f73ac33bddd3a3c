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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/lingobot/internal/markdown"
	"github.com/valpere/lingobot/internal/pipeline"
)

var (
	askInputFile string
	askSource    string
	askTarget    string
	askBackend   string
	askJSON      bool
	askPlain     bool
	askNoHistory bool
	askTimeout   time.Duration
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question asked in any supported language",
	Long: `Translate a question to English, answer it with the selected backend and
translate the answer back.

The question is taken from the arguments, from --input, or from stdin.
By default the source language is detected and the answer comes back in
the same language.

Backends:
  - local    Ollama model (services.ollama.generate_model)
  - hosted   OpenAI-compatible chat completions (services.openai.*)

Example:
  lingobot ask "¿Qué curso debo tomar para aprender Go?"
  lingobot ask -s ta -t en -b hosted -i question.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		question, err := readQuestion(args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if askTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, askTimeout)
			defer cancel()
		}

		a := newApp()
		defer a.Close()

		p, err := a.pipeline(ctx, !askNoHistory)
		if err != nil {
			return err
		}

		resp, err := p.Ask(ctx, pipeline.Request{
			Text:       question,
			SourceLang: askSource,
			TargetLang: askTarget,
			Backend:    askBackend,
		})
		if err != nil {
			return err
		}

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		printWarnings(resp.Warnings)
		answer := resp.Answer
		if askPlain {
			answer = markdown.ToPlainText(answer)
		}
		fmt.Println(answer)
		fmt.Fprintf(os.Stderr, "[%s → %s via %s in %s]\n",
			resp.SourceLang, resp.TargetLang, resp.Backend, time.Duration(resp.LatencyMs)*time.Millisecond)
		return nil
	},
}

func readQuestion(args []string) (string, error) {
	if len(args) > 0 && askInputFile != "" {
		return "", fmt.Errorf("give the question either as arguments or with --input, not both")
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if askInputFile != "" {
		data, err := os.ReadFile(askInputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&askInputFile, "input", "i", "", "Read the question from a file")
	askCmd.Flags().StringVarP(&askSource, "source", "s", pipeline.Auto, "Question language code, or auto to detect it")
	askCmd.Flags().StringVarP(&askTarget, "target", "t", "", "Answer language code (default: the question language)")
	askCmd.Flags().StringVarP(&askBackend, "backend", "b", "", "Generation backend: local or hosted (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full response as JSON")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "Strip markdown from the answer")
	askCmd.Flags().BoolVar(&askNoHistory, "no-history", false, "Do not record the exchange")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 0, "Overall deadline for the request (0 = none)")
}
