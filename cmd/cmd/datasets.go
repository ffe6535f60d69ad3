package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/detect-demo/config"
)

// datasetsCmd represents the datasets command
var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the configured datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		table, err := cfg.Table()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tKIND\tCLASSES\tWEIGHTS")
		for _, d := range table.Datasets() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.Name, d.Kind, d.Classes.Len(), d.WeightsURL)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}
