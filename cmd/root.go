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
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valpere/lingobot/internal/config"
	"github.com/valpere/lingobot/internal/logger"
)

var version = "0.1.0"

var (
	cfgFile  string
	logEnv   string
	dbPath   string
	settings *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "lingobot",
	Short: "Multilingual question answering through an English pivot",
	Long: `lingobot answers questions asked in any supported language.

The question is translated to English, answered by a local or hosted
text-generation backend, and the answer is translated back. Failed
translations fall back to the untranslated text and are reported as
warnings instead of errors.

Use "lingobot ask --help" to get started.`,
	Version:       version,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-env") {
			cfg.LogEnv = logEnv
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath = dbPath
		}
		if _, err := logger.Init(cfg.LogEnv); err != nil {
			return err
		}
		settings = cfg
		logger.Sugar().Debugw("configuration loaded",
			"command", cmd.Name(),
			"cache", cfg.Cache.Backend,
			"forward", cfg.Translation.Forward,
			"backward", cfg.Translation.Backward,
			"generation", cfg.Generation.Backend,
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./lingobot.yaml or $HOME/.config/lingobot/lingobot.yaml)")
	rootCmd.PersistentFlags().StringVar(&logEnv, "log-env", "development", "Logger preset: development or production")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "./data/lingobot.db", "Database path for history, translation memory and glossary")
}
