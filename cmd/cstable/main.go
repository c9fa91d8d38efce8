// Command cstable writes CSV data as columnar tables and inspects them.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/hupe1980/cstable"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type globalFlags struct {
	store     string
	logLevel  string
	logFormat string
}

func (g *globalFlags) logger() (*cstable.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", g.logLevel, err)
	}
	switch strings.ToLower(g.logFormat) {
	case "text":
		return cstable.NewTextLogger(level), nil
	case "json":
		return cstable.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", g.logFormat)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "cstable",
		Short: "Write and inspect columnar tables",
		Long: `cstable writes CSV data as columnar tables to a local directory, S3 or MinIO
and inspects the tables it wrote.

Stores:
  ./data                 local directory
  s3://bucket/prefix     AWS S3, credentials from the default AWS chain
  minio://bucket/prefix  MinIO, endpoint and credentials from MINIO_ENDPOINT,
                         MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_USE_SSL`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.store, "store", ".", "Table store (directory, s3://bucket/prefix or minio://bucket/prefix)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("cstable v%s\n", version)
			cmd.Printf("Go version: %s\n", runtime.Version())
			cmd.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newWriteCmd(g))
	root.AddCommand(newInspectCmd(g))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
