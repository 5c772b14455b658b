package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knxdoc-io/knxdoc-exporter/pkg/store"
)

func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Populate the database with a demo schema",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger := newLogger()

			st, err := store.Open(viper.GetString("db"), logger)
			if err != nil {
				return err
			}
			defer st.Close()

			if viper.GetBool("demo") {
				if err := st.SeedDemo(ctx); err != nil {
					return err
				}
			}

			if n := viper.GetInt("tables"); n > 0 {
				if err := st.SeedRandom(ctx, n, viper.GetUint64("rand-seed")); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().Bool("demo", true, "seed the demo supply-chain schema")
	cmd.Flags().Int("tables", 0, "also generate N randomized tables")
	cmd.Flags().Uint64("rand-seed", 1, "seed for the randomized schema generator")

	return cmd
}
