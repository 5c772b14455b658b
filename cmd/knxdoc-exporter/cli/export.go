package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/expand"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/export"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/store"
)

func ExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Expand reference fields and export the documented schema",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger := newLogger()

			st, err := store.Open(viper.GetString("db"), logger)
			if err != nil {
				return err
			}
			defer st.Close()

			runner := export.NewRunner(st, logger, export.Opts{
				MaxDepth:    viper.GetInt("max-depth"),
				IndentWidth: viper.GetInt("indent-width"),
			})

			result, err := runner.Run(ctx)
			if err != nil {
				return err
			}

			if output := viper.GetString("output"); output != "" {
				if err := export.WriteWorkbook(output, result); err != nil {
					return err
				}
				logger.Info("wrote workbook", "path", output, "rows", len(result.Rows))
			}

			if csvPath := viper.GetString("csv"); csvPath != "" {
				if err := export.WriteCSVFile(csvPath, result.Rows, viper.GetBool("include-hidden")); err != nil {
					return err
				}
				logger.Info("wrote csv", "path", csvPath)
			}

			if !viper.GetBool("skip-writeback") {
				if _, err := st.ReplaceExpanded(ctx, result.Rows); err != nil {
					return err
				}
			}

			if preview := viper.GetInt("preview"); preview > 0 {
				export.RenderPreview(os.Stdout, result.Rows, preview)
			}

			return nil
		},
	}

	cmd.Flags().String("output", "knxdoc_export.xlsx", "workbook output path (empty to skip)")
	cmd.Flags().String("csv", "", "also write a csv to this path")
	cmd.Flags().Int("max-depth", expand.DefaultMaxDepth, "maximum reference hops per expansion branch")
	cmd.Flags().Int("indent-width", expand.DefaultIndentWidth, "spaces per depth level in expanded field names")
	cmd.Flags().Bool("include-hidden", false, "include identity columns in csv output")
	cmd.Flags().Bool("skip-writeback", false, "do not write expanded rows back into the database")
	cmd.Flags().Int("preview", 0, "render the first N rows to the terminal")

	return cmd
}
