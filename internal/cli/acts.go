package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lawai/internal/model"
)

var actType string

// actsCmd represents the acts command
var actsCmd = &cobra.Command{
	Use:   "acts",
	Short: "Search the bare-act catalog",
}

var actsSearchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search sections of one act",
	Long: `Search the sections of one act by keyword or section number.

Example:
  lawai acts search theft --act IPC
  lawai acts search 154 --act CrPC`,
	Args: cobra.MinimumNArgs(1),
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

		laws, err := svc.catalog.SearchActs(ctx, strings.Join(args, " "), actType)
		if err != nil {
			return err
		}
		return renderLaws(cfg.Output.Format, laws)
	},
}

var actsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every section in the catalog",
	Args:  cobra.NoArgs,
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

		laws, err := svc.catalog.ListLaws(ctx)
		if err != nil {
			return err
		}
		return renderLaws(cfg.Output.Format, laws)
	},
}

func renderLaws(format string, laws []model.Law) error {
	return render(os.Stdout, format, model.LawList{Data: laws}, func(w io.Writer) {
		if len(laws) == 0 {
			fmt.Fprintln(w, "No matching sections")
			return
		}
		writeLaws(w, laws)
	})
}

func init() {
	rootCmd.AddCommand(actsCmd)
	actsCmd.AddCommand(actsSearchCmd)
	actsCmd.AddCommand(actsListCmd)

	actsSearchCmd.Flags().StringVar(&actType, "act", "IPC", "act to search (IPC, CrPC, ...)")
}
