package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func NewGenDocsCommand() *cobra.Command {
	var (
		outDir string
		format string
	)

	cmd := &cobra.Command{
		Use:   "gendocs",
		Short: "Generate CLI documentation",
		Long: `Generate documentation for every clinicflow command.

Docs are written to ./docs/cli as Markdown unless --outdir or --format say
otherwise. Supported formats: markdown and man.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = "docs/cli"
			}
			absOutDir, err := filepath.Abs(outDir)
			if err != nil {
				return fmt.Errorf("failed to resolve %q: %w", outDir, err)
			}
			if err := os.MkdirAll(absOutDir, 0o755); err != nil {
				return fmt.Errorf("failed to create docs directory %q: %w", absOutDir, err)
			}

			root := cmd.Root()
			switch format {
			case "markdown", "md":
				err = doc.GenMarkdownTree(root, absOutDir)
			case "man":
				err = doc.GenManTree(root, &doc.GenManHeader{Title: "CLINICFLOW", Section: "1"}, absOutDir)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return fmt.Errorf("failed to generate CLI docs: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "CLI docs written to %s\n", absOutDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "outdir", "docs/cli", "Output directory for generated CLI docs")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or man")

	return cmd
}
