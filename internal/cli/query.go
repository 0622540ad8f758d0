package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lawai/internal/model"
	"github.com/ppiankov/lawai/internal/workflow"
)

var (
	queryHeading     string
	queryDescription string
	queryStatus      string
	queryTags        []string
	querySave        bool
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [text...]",
	Short: "Find applicable sections for an incident and draft a case",
	Long: `Query sends the incident description to the inference service, prints
the sections it considers applicable and derives a draft case record.

With --save the draft is reviewed with the given edits and stored in the
case database. Without it nothing is persisted.

Answers are cached per query (memory, then ~/.lawai/cache), so repeating
a query is served locally without calling the inference service. Use
--no-cache to always ask the backend.

Example:
  lawai query "my bike was stolen from the station parking"
  lawai query "a man was killed in a fight" --tag homicide --status assigned --save
  lawai query "cheque bounced" -o json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVar(&queryHeading, "heading", "", "override the case heading")
	queryCmd.Flags().StringVar(&queryDescription, "description", "", "override the description")
	queryCmd.Flags().StringVar(&queryStatus, "status", "", "case status (assigned, closed, under-investigation)")
	queryCmd.Flags().StringSliceVarP(&queryTags, "tag", "t", nil, "tag to add (repeatable)")
	queryCmd.Flags().BoolVar(&querySave, "save", false, "save the case record")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newServices(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	w := workflow.New(svc.inference, svc.cases, svc.workflowOptions()...)
	defer func() { _ = w.Close() }()

	text := strings.Join(args, " ")
	answer, err := w.SubmitQuery(ctx, text)
	if !workflow.IsRecoverable(err) {
		return fmt.Errorf("query failed: %w", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  %v (showing raw answer)\n", err)
	}

	if queryHeading != "" || queryDescription != "" || queryStatus != "" || len(queryTags) > 0 || querySave {
		if err := applyEdits(w); err != nil {
			return err
		}
	}

	out := queryOutput{Answer: newAnswerView(answer)}
	if querySave {
		saved, err := w.SaveDraft(ctx)
		if err != nil {
			return fmt.Errorf("save failed: %w", err)
		}
		out.Case, out.Saved = saved, true
	} else {
		out.Case, _ = w.Draft()
	}

	return render(os.Stdout, cfg.Output.Format, out, func(wr io.Writer) {
		writeAnswer(wr, answer)
		writeCase(wr, out.Case)
		if out.Saved {
			fmt.Fprintf(os.Stderr, "\n✓ Saved case %s\n", out.Case.ID)
		}
	})
}

// applyEdits moves the workflow into review and applies the flag edits
func applyEdits(w *workflow.Workflow) error {
	if err := w.Review(); err != nil {
		return err
	}
	if queryHeading != "" {
		if err := w.SetHeading(queryHeading); err != nil {
			return err
		}
	}
	if queryDescription != "" {
		if err := w.SetDescription(queryDescription); err != nil {
			return err
		}
	}
	if queryStatus != "" {
		if err := w.SetStatus(model.CaseStatus(queryStatus)); err != nil {
			return err
		}
	}
	for _, tag := range queryTags {
		if _, err := w.AddTag(tag); err != nil {
			return err
		}
	}
	return nil
}
