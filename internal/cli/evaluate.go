package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/happyhackingspace/seqtag"
	"github.com/happyhackingspace/seqtag/eval"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var modelPath string
	var ratio float64
	var reportPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "evaluate <corpus>",
		Short: "Evaluate tagging accuracy on a gold CoNLL-style corpus",
		Args:  cobra.ExactArgs(1),
		Example: `  seqtag evaluate test.txt
  seqtag evaluate test.txt --ratio 0.9
  seqtag evaluate test.txt --report report.txt --output pred.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			corpusPath := args[0]
			slog.Info("Evaluating", "corpus", corpusPath, "ratio", ratio)

			t, err := loadOrDownloadModel(modelPath)
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := seqtag.Evaluate(t, corpusPath, &seqtag.EvalConfig{
				MatchRatio: ratio,
				ReportPath: reportPath,
				OutputPath: outputPath,
				Progress: func(done, total int) {
					slog.Debug("Predicting", "batch", done, "total", total)
				},
			})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Printf("Sequences: %d  Tokens: %d\n", result.Sequences, result.Tokens)
			fmt.Print(result.Scores())
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: auto-detect or download)")
	cmd.Flags().Float64Var(&ratio, "ratio", eval.DefaultRatio, "Span text similarity threshold")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a plain-text report to this file")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write the corpus with predicted tags to this file")
	return cmd
}
