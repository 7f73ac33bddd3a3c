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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/lingobot/internal/batch"
	"github.com/valpere/lingobot/internal/pipeline"
	"github.com/valpere/lingobot/internal/store"
)

var (
	batchInputFile  string
	batchOutputFile string
	batchSource     string
	batchTarget     string
	batchBackend    string
	batchColumn     int
	batchHeader     bool
	batchWorkers    int
	batchResume     string
	batchNoHistory  bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Answer every question in a CSV column",
	Long: `Answer the questions found in one column of a CSV file and write the file
back out with an extra "answer" column. Questions are answered concurrently.

A job ID is printed at the start of each run. If the run is interrupted,
use --resume with that ID to skip rows that were already answered.

Example:
  lingobot batch -i questions.csv -o answers.csv --column 1 --header
  lingobot batch -i questions.csv -o answers.csv --resume 6f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchInputFile == batchOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}
		if batchColumn < 0 {
			return fmt.Errorf("--column must not be negative")
		}

		f, err := os.Open(batchInputFile)
		if err != nil {
			return fmt.Errorf("failed to open input CSV: %w", err)
		}
		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		if len(records) == 0 {
			return fmt.Errorf("CSV file is empty")
		}

		first := 0
		if batchHeader {
			first = 1
		}
		rows := make([]pipeline.Request, 0, len(records)-first)
		for _, rec := range records[first:] {
			var text string
			if batchColumn < len(rec) {
				text = rec[batchColumn]
			}
			rows = append(rows, pipeline.Request{
				Text:       text,
				SourceLang: batchSource,
				TargetLang: batchTarget,
				Backend:    batchBackend,
			})
		}

		ctx := cmd.Context()
		a := newApp()
		defer a.Close()

		db, err := a.openStore()
		if err != nil {
			return err
		}

		jobID, done, err := startBatchJob(cmd, db)
		if err != nil {
			return err
		}

		p, err := a.pipeline(ctx, !batchNoHistory)
		if err != nil {
			return err
		}

		results, runErr := batch.Run(ctx, p, rows, batch.Options{
			Workers: batchWorkers,
			Done:    done,
			OnResult: func(r batch.Result) error {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "Row %d: %v\n", r.Row+first, r.Err)
					return nil
				}
				printWarnings(r.Response.Warnings)
				if err := db.SaveBatchRow(ctx, jobID, r.Row, r.Answer); err != nil {
					a.log.Warn("failed to checkpoint row", zap.Int("row", r.Row), zap.Error(err))
				}
				return nil
			},
		})

		out := make([][]string, 0, len(records))
		if batchHeader {
			out = append(out, append(append([]string{}, records[0]...), "answer"))
		}
		for i, rec := range records[first:] {
			out = append(out, append(append([]string{}, rec...), results[i].Answer))
		}
		if err := writeCSV(batchOutputFile, out); err != nil {
			return err
		}

		if runErr != nil {
			return fmt.Errorf("batch interrupted, resume with --resume %s: %w", jobID, runErr)
		}
		if err := db.CompleteBatchJob(ctx, jobID); err != nil {
			a.log.Warn("failed to complete batch job", zap.String("job", jobID), zap.Error(err))
		}

		fmt.Printf("Answered %d rows: %s\n", len(rows), batchOutputFile)
		return nil
	},
}

// startBatchJob creates a job record or loads the one being resumed.
func startBatchJob(cmd *cobra.Command, db *store.Store) (string, map[int]string, error) {
	ctx := cmd.Context()
	if batchResume != "" {
		job, err := db.GetBatchJob(ctx, batchResume)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load batch job: %w", err)
		}
		if job.InputFile != batchInputFile {
			return "", nil, fmt.Errorf("batch job %s was started for %s, not %s", job.ID, job.InputFile, batchInputFile)
		}
		done, err := db.BatchRows(ctx, job.ID)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load batch rows: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Resuming batch job %s (%d rows already done)\n", job.ID, len(done))
		return job.ID, done, nil
	}

	id, err := db.CreateBatchJob(ctx, store.BatchJob{
		InputFile:  batchInputFile,
		OutputFile: batchOutputFile,
		SourceLang: batchSource,
		TargetLang: batchTarget,
		Backend:    batchBackend,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to create batch job: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Batch job ID: %s (use --resume %s to resume if interrupted)\n", id, id)
	return id, nil, nil
}

func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output CSV: %w", err)
	}
	defer outFile.Close()

	writer := csv.NewWriter(outFile)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write output CSV: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchInputFile, "input", "i", "", "Input CSV file (required)")
	batchCmd.Flags().StringVarP(&batchOutputFile, "output", "o", "", "Output CSV file (required)")
	batchCmd.Flags().StringVarP(&batchSource, "source", "s", pipeline.Auto, "Question language code, or auto to detect per row")
	batchCmd.Flags().StringVarP(&batchTarget, "target", "t", "", "Answer language code (default: each question's language)")
	batchCmd.Flags().StringVarP(&batchBackend, "backend", "b", "", "Generation backend: local or hosted (default from config)")
	batchCmd.Flags().IntVarP(&batchColumn, "column", "l", 0, "Column holding the question (0-indexed)")
	batchCmd.Flags().BoolVar(&batchHeader, "header", false, "First row is a header")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", batch.DefaultWorkers, "Questions answered concurrently")
	batchCmd.Flags().StringVar(&batchResume, "resume", "", "Resume the batch job with this ID")
	batchCmd.Flags().BoolVar(&batchNoHistory, "no-history", false, "Do not record exchanges")

	batchCmd.MarkFlagRequired("input")
	batchCmd.MarkFlagRequired("output")
}
