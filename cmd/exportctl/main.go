// Package main provides exportctl, a command line front end for the workbook
// export engine.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/locvowork/fleet_management_sample/internal/logger"
	"github.com/locvowork/fleet_management_sample/internal/service"
	"github.com/locvowork/fleet_management_sample/pkg/excelkit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logLevel string
		pretty   bool
	)
	root := &cobra.Command{
		Use:   "exportctl",
		Short: "Render spreadsheet exports from workbook definitions",
		Long: `exportctl renders .xlsx workbooks from YAML workbook definitions
and NDJSON or JSON row files, using the same engine as the export API.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.InitLogging("", logLevel, pretty)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&pretty, "pretty", true, "Human readable log output")

	root.AddCommand(newGenerateCmd(), newReportsCmd())
	return root
}

func newReportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the built-in report catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := service.LoadCatalogue()
			if err != nil {
				return err
			}
			return printCatalogue(cmd.OutOrStdout(), reports)
		},
	}
}

func printCatalogue(w io.Writer, reports map[string]*excelkit.Definition) error {
	names := make([]string, 0, len(reports))
	for name := range reports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(uniq(reports[name].SourceNames()), ",")); err != nil {
			return err
		}
	}
	return nil
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
