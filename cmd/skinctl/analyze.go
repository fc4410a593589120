package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/anime-shed/skin-advisor-go/pkg/models"
)

var analyzeReq models.AnalyzeRequest

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path|url>",
	Short: "Analyze one face photo and print attributes with recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := analyzeReq
		ref := strings.TrimSpace(args[0])
		if lower := strings.ToLower(ref); strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			req.URL = ref
		} else {
			req.Path = ref
		}

		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		res, err := c.Service().Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeReq.Mode, "mode", "m", "general", "Recommendation mode: general, skincare or makeup")
	f.StringVarP(&analyzeReq.Category, "category", "c", "", "Restrict products to Skincare or Makeup")
	f.StringVarP(&analyzeReq.Undertone, "undertone", "u", "", "Override the undertone filter: Cool, Neutral or Warm")
	f.StringVar(&analyzeReq.RefreshKey, "refresh-key", "", "Model version to load before predicting")
	f.BoolVarP(&analyzeReq.Detail, "detail", "d", false, "Include ranked confidences per attribute")
	f.BoolVar(&analyzeReq.FastMode, "fast", false, "Assess photo quality on a downscaled crop")
	rootCmd.AddCommand(analyzeCmd)
}
