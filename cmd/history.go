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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded exchanges",
	Long:  `List, show, delete and summarise questions answered by ask, batch and serve.`,
}

var (
	historyLimit  int
	historyOffset int
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent exchanges, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.Close()
		db, err := a.openStore()
		if err != nil {
			return err
		}

		exchanges, err := db.ListExchanges(cmd.Context(), historyLimit, historyOffset)
		if err != nil {
			return fmt.Errorf("failed to list exchanges: %w", err)
		}
		if len(exchanges) == 0 {
			fmt.Println("No exchanges recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tLANG\tBACKEND\tFAILED\tQUESTION")
		for _, ex := range exchanges {
			fmt.Fprintf(w, "%s\t%s\t%s→%s\t%s\t%v\t%s\n",
				ex.ID, ex.CreatedAt.Local().Format("2006-01-02 15:04"),
				ex.SourceLang, ex.TargetLang, ex.Backend, ex.GenerationFailed,
				snippet(ex.Query, 40))
		}
		return w.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one exchange as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.Close()
		db, err := a.openStore()
		if err != nil {
			return err
		}

		ex, err := db.GetExchange(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ex)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an exchange by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.Close()
		db, err := a.openStore()
		if err != nil {
			return err
		}

		if err := db.DeleteExchange(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to delete exchange: %w", err)
		}
		fmt.Printf("Deleted exchange: %s\n", args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded exchanges",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.Close()
		db, err := a.openStore()
		if err != nil {
			return err
		}

		n, err := db.ClearExchanges(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Printf("Cleared %d exchanges.\n", n)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise recorded exchanges",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp()
		defer a.Close()
		db, err := a.openStore()
		if err != nil {
			return err
		}

		stats, err := db.HistoryStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total exchanges:    %d\n", stats.Total)
		fmt.Printf("Generation failed:  %d\n", stats.Failed)
		fmt.Printf("Average latency:    %s\n", (time.Duration(stats.AvgLatencyMs) * time.Millisecond).Round(time.Millisecond))
		printCounts("By source language:", stats.BySourceLang)
		printCounts("By backend:", stats.ByBackend)
		return nil
	},
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println(title)
	for _, k := range keys {
		fmt.Printf("  %-8s %d\n", k, counts[k])
	}
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of exchanges to show")
	historyListCmd.Flags().IntVar(&historyOffset, "offset", 0, "Skip this many newer exchanges")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatsCmd)
}
