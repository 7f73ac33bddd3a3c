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
	"github.com/spf13/cobra"

	"github.com/valpere/lingobot/internal/server"
)

var (
	serveAddr      string
	serveNoHistory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Long: `Start an HTTP server exposing the ask pipeline.

Routes:
  POST /api/ask          {"text", "source_lang", "target_lang", "backend"}
  POST /api/translate    {"text", "source_lang", "target_lang"}
  GET  /api/languages
  GET  /api/history      ?limit=&offset=
  GET  /api/history/{id}
  GET  /healthz

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := newApp()
		defer a.Close()

		p, err := a.pipeline(ctx, !serveNoHistory)
		if err != nil {
			return err
		}
		cfg := server.Config{
			Pipeline:   p,
			Translator: p,
			Detector:   a.detector,
			Backends:   p.Backends(),
			Logger:     a.log,
		}
		if !serveNoHistory {
			db, err := a.openStore()
			if err != nil {
				return err
			}
			cfg.History = db
		}

		addr := settings.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		return server.New(cfg).ListenAndServe(ctx, server.ListenConfig{
			Addr:         addr,
			ReadTimeout:  settings.Server.ReadTimeout,
			WriteTimeout: settings.Server.WriteTimeout,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address (default from server.addr)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not record or expose exchanges")
}
