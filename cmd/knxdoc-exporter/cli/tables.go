package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/export"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/store"
)

func TablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tables",
		Short:        "List the documented tables",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			st, err := store.Open(viper.GetString("db"), logger)
			if err != nil {
				return err
			}
			defer st.Close()

			tables, err := st.ListTables(context.Background())
			if err != nil {
				return err
			}

			export.RenderTables(os.Stdout, tables)
			return nil
		},
	}

	return cmd
}
