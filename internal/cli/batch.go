package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lawai/internal/model"
	"github.com/ppiankov/lawai/internal/worker"
	"github.com/ppiankov/lawai/internal/workflow"
)

var (
	concurrency  int
	batchTimeout time.Duration
	batchSave    bool
	batchTags    []string
	batchStatus  string
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Triage many incident descriptions from a file in parallel",
	Long: `Batch runs every line of the input file through its own query workflow:
- Read queries from input file (one per line, # starts a comment)
- Process queries in parallel with configurable worker count
- Optionally tag and save each derived case record

Requests to each backend host are rate limited, and answers are cached,
so repeated queries do not hit the inference service twice.

Example:
  lawai batch incidents.txt
  lawai batch incidents.txt --concurrency 8 --save --tag night-shift
  lawai batch incidents.txt -o json > triage.json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "save every derived case record")
	batchCmd.Flags().StringSliceVarP(&batchTags, "tag", "t", nil, "tag to add to every case (repeatable)")
	batchCmd.Flags().StringVar(&batchStatus, "status", "", "status for every case")
}

type batchItem struct {
	Query string           `json:"query" yaml:"query"`
	Case  model.CaseRecord `json:"case" yaml:"case"`
	Saved bool             `json:"saved" yaml:"saved"`
	Error string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	svc, err := newServices(cfg)
	if err != nil {
		return err
	}

	sigCtx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(sigCtx, batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  LawAI Batch Triage\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Inference:    %s\n", svc.inference.Name())
	fmt.Fprintf(os.Stderr, "  Save:         %v\n", batchSave)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	triager := &workflow.Triager{
		Inferer: svc.inference,
		Store:   svc.cases,
		Options: svc.workflowOptions(),
		Save:    batchSave,
		Tags:    batchTags,
		Status:  model.CaseStatus(batchStatus),
	}
	processor := worker.NewBatchProcessor(triager, cfg.Concurrency.Workers)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	items := make([]batchItem, len(results))
	successCount, savedCount, failureCount := 0, 0, 0

	for i, result := range results {
		items[i] = batchItem{Query: result.Query, Case: result.Case, Saved: result.Saved()}

		if !workflow.IsRecoverable(result.Error) {
			failureCount++
			items[i].Error = result.Error.Error()
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Query, result.Error)
			continue
		}

		successCount++
		if result.Saved() {
			savedCount++
		}
		if result.Error != nil {
			items[i].Error = result.Error.Error()
			fmt.Fprintf(os.Stderr, "⚠️  %s: %v\n", result.Query, result.Error)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s\n", truncate(result.Query, 60))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d queries\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Saved:     %d\n", savedCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	return render(os.Stdout, cfg.Output.Format, items, func(w io.Writer) {
		for _, item := range items {
			if item.Error != "" && item.Case.CaseHeading == "" {
				continue
			}
			writeCase(w, item.Case)
			fmt.Fprintln(w)
		}
	})
}
