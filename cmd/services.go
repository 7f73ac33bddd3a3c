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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/lingobot/internal/translator"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Check the configured translation services",
	Long: `Lists the forward and backward translation chains in the order they
are tried and reports whether each service is configured well enough to use.
Ollama is contacted over HTTP. The hosted services only have their
credentials checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.Close()

		tc := settings.Translation
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DIRECTION\tSERVICE\tSTATUS")
		for _, dir := range []struct {
			name  string
			names []string
		}{{"forward", tc.Forward}, {"backward", tc.Backward}} {
			services, err := a.buildServices(dir.names)
			if err != nil {
				return fmt.Errorf("%s services: %w", dir.name, err)
			}
			chain := translator.NewChain(translator.ChainConfig{Logger: a.log}, services...)
			ready := chain.Ready(cmd.Context())
			for _, name := range chain.Names() {
				status := "ready"
				if err := ready[name]; err != nil {
					status = err.Error()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", dir.name, name, status)
			}
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(servicesCmd)
}
