package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/ingest"
	ingesttypes "github.com/knxdoc-io/knxdoc-exporter/pkg/ingest/types"
	"github.com/knxdoc-io/knxdoc-exporter/pkg/store"
)

func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ingest",
		Short:        "Import table and column metadata from a live database",
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

			opts := ingesttypes.IngestOpts{
				DBMS:          ingesttypes.DBMS(viper.GetString("dbms")),
				ConnectionURI: viper.GetString("uri"),
				DatabaseName:  viper.GetString("database"),
			}

			return ingest.Run(ctx, opts, st, logger)
		},
	}

	cmd.Flags().String("dbms", "mysql", "source database type (mysql or postgres)")
	cmd.Flags().String("uri", "", "connection uri of the source database")
	cmd.Flags().String("database", "", "name of the database to introspect")

	cmd.MarkFlagRequired("uri")
	cmd.MarkFlagRequired("database")

	return cmd
}
