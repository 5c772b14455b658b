package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "knxdoc-exporter",
		Short:        "Export documented table schemas with expanded reference fields",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("db", "knxdoc.db", "path to the schema documentation database")
	cmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	cmd.AddCommand(ExportCmd())
	cmd.AddCommand(IngestCmd())
	cmd.AddCommand(SeedCmd())
	cmd.AddCommand(TablesCmd())
	cmd.AddCommand(VersionCmd())

	viper.SetEnvPrefix("KNXDOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	return cmd
}

func InitAndExecute() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
