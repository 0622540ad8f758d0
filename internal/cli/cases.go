package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lawai/internal/model"
)

var casesStatus string

// casesCmd represents the cases command
var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Browse the case database",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cases",
	Long: `List the cases stored in the case database.

Example:
  lawai cases list
  lawai cases list --status closed
  lawai cases list -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		cases, err := svc.cases.ListCases(ctx)
		if err != nil {
			return err
		}
		cases = model.FilterByStatus(cases, model.CaseStatus(casesStatus))

		return render(os.Stdout, cfg.Output.Format, model.CaseList{Cases: cases}, func(w io.Writer) {
			if len(cases) == 0 {
				fmt.Fprintln(w, "No cases found")
				return
			}
			writeCaseTable(w, cases)
		})
	},
}

var casesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one case",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		cases, err := svc.cases.ListCases(ctx)
		if err != nil {
			return err
		}
		rec, ok := model.FindCase(cases, model.CaseID(args[0]))
		if !ok {
			return fmt.Errorf("case %s not found", args[0])
		}

		return render(os.Stdout, cfg.Output.Format, rec, func(w io.Writer) {
			writeCase(w, rec)
		})
	},
}

func init() {
	rootCmd.AddCommand(casesCmd)
	casesCmd.AddCommand(casesListCmd)
	casesCmd.AddCommand(casesShowCmd)

	casesListCmd.Flags().StringVar(&casesStatus, "status", "", "only show cases with this status")
}
