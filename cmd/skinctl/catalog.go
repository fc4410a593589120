package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apperrors "github.com/anime-shed/skin-advisor-go/internal/errors"
	"github.com/anime-shed/skin-advisor-go/pkg/models"
)

var (
	recommendReq models.RecommendRequest
	galleryLimit int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Match catalog products to known skin attributes",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		recs, err := svc.Recommend(cmd.Context(), recommendReq)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), recs); err != nil {
			return err
		}
		return reportMatchStatus(cmd.ErrOrStderr(), recs.Catalog)
	},
}

// reportMatchStatus fails the command on a degraded catalog and prints the typed
// no_match_found status to w when the match was empty.
func reportMatchStatus(w io.Writer, st models.CatalogStatus) error {
	switch {
	case st.Degraded:
		return apperrors.NewDatabaseUnavailableError(errors.New(st.Reason))
	case st.NoMatch:
		return printJSON(w, apperrors.NewNoMatchFoundError("no products match these attributes"))
	}
	return nil
}

var productCmd = &cobra.Command{
	Use:   "product <name>",
	Short: "Look up one product by exact name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		resp, err := svc.ProductByName(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		switch {
		case resp.Catalog.Degraded:
			return apperrors.NewDatabaseUnavailableError(errors.New(resp.Catalog.Reason))
		case !resp.Found:
			return apperrors.NewNotFoundError(fmt.Sprintf("product %q not found", args[0]), nil)
		}
		return nil
	},
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List products that have images",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := openCatalog(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		resp, err := svc.Gallery(cmd.Context(), galleryLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	},
}

func init() {
	f := recommendCmd.Flags()
	f.StringVar(&recommendReq.SkinTone, "tone", "", "Skin tone (required)")
	f.StringVar(&recommendReq.SkinType, "type", "", "Skin type (required)")
	f.StringVar(&recommendReq.SkinConcern, "concern", "", "Skin concern (required)")
	f.StringVar(&recommendReq.SkinTexture, "texture", "", "Skin texture (required)")
	f.StringVar(&recommendReq.Undertone, "undertone", "", "Undertone filter")
	f.StringVar(&recommendReq.Category, "category", "", "Skincare or Makeup")
	f.StringVarP(&recommendReq.Mode, "mode", "m", "general", "general, skincare or makeup")
	for _, name := range []string{"tone", "type", "concern", "texture"} {
		_ = recommendCmd.MarkFlagRequired(name)
	}

	galleryCmd.Flags().IntVarP(&galleryLimit, "limit", "n", 0, "Maximum items (default GALLERY_LIMIT)")

	rootCmd.AddCommand(recommendCmd, productCmd, galleryCmd)
}
