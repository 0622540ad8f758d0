package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/lawai/internal/model"
)

var (
	docsFilter string
	docsOutput string
)

// docsCmd represents the docs command
var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List and download original act documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available act documents",
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

		docs, err := svc.catalog.ListDocuments(ctx)
		if err != nil {
			return err
		}
		docs = model.FilterDocuments(docs, docsFilter)

		return render(os.Stdout, cfg.Output.Format, docs, func(w io.Writer) {
			if len(docs) == 0 {
				fmt.Fprintln(w, "No documents found")
				return
			}
			writeDocuments(w, docs)
		})
	},
}

var docsDownloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download an act document",
	Long: `Download the original document of an act.

Example:
  lawai docs download 1
  lawai docs download 2 --out crpc.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
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

		id := model.DocumentID(args[0])
		path := docsOutput
		if path == "" {
			path = sanitizeFilename(string(id)) + ".pdf"
			if docs, listErr := svc.catalog.ListDocuments(ctx); listErr == nil {
				for _, d := range docs {
					if d.ID == id {
						path = sanitizeFilename(d.ActName) + ".pdf"
						break
					}
				}
			}
		}

		tmp, err := os.CreateTemp(filepath.Dir(path), ".lawai-download-*")
		if err != nil {
			return fmt.Errorf("create file: %w", err)
		}
		defer func() {
			if err != nil {
				_ = os.Remove(tmp.Name())
			}
		}()

		n, err := svc.catalog.DownloadDocument(ctx, id, tmp)
		if closeErr := tmp.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close file: %w", closeErr)
		}
		if err != nil {
			return err
		}
		if err = os.Rename(tmp.Name(), path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		fmt.Fprintf(os.Stderr, "✓ Downloaded %s (%d bytes)\n", path, n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsDownloadCmd)

	docsListCmd.Flags().StringVar(&docsFilter, "filter", "", "only show documents matching this text")
	docsDownloadCmd.Flags().StringVar(&docsOutput, "out", "", "output file (default: <act name>.pdf)")
}
