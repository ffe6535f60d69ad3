package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/detect-demo/controller"
	"github.com/nvr-ai/detect-demo/inference"
	"github.com/nvr-ai/detect-demo/profiler"
)

var (
	predictDataset   string
	predictOutput    string
	predictDetection float32
	predictMask      float32
	predictBoxesOnly bool
)

// predictCmd represents the predict command
var predictCmd = &cobra.Command{
	Use:   "predict <image-url>",
	Short: "Run one image through the pipeline and write the annotated PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("[predict] ")
		if err != nil {
			return err
		}
		defer a.Close()

		dataset := predictDataset
		if dataset == "" {
			dataset = a.table.Names()[0]
		}
		req := controller.Request{
			URL:        args[0],
			Dataset:    dataset,
			Thresholds: inference.Thresholds{Detection: predictDetection, Mask: predictMask},
			BoxesOnly:  predictBoxesOnly,
		}

		r, err := a.controller.Run(cmd.Context(), &controller.Session{}, req)
		if err != nil {
			return err
		}
		if err := os.WriteFile(predictOutput, r.PNG, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", predictOutput, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d detections (%dx%d) in %s [%s], written to %s\n",
			len(r.Detections), r.Width, r.Height, r.Elapsed, profiler.Summary(r.Stages), predictOutput)
		for _, d := range r.Detections {
			fmt.Fprintln(out, d.String())
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().StringVarP(&predictDataset, "dataset", "d", "", "dataset name (default: first configured)")
	predictCmd.Flags().StringVarP(&predictOutput, "output", "o", "prediction.png", "PNG output path")
	predictCmd.Flags().Float32Var(&predictDetection, "detection-threshold", inference.DefaultThreshold, "minimum detection score, inclusive")
	predictCmd.Flags().Float32Var(&predictMask, "mask-threshold", inference.DefaultThreshold, "minimum mask probability, inclusive")
	predictCmd.Flags().BoolVar(&predictBoxesOnly, "boxes-only", false, "skip mask overlays")
	rootCmd.AddCommand(predictCmd)
}
