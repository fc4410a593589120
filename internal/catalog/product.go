// Package catalog defines the product record, the match query and the read-only store
// contract the recommender queries.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/anime-shed/skin-advisor-go/internal/attributes"
)

// Product categories.
const (
	CategorySkincare = "Skincare"
	CategoryMakeup   = "Makeup"
)

// Table is the relational table the SQL backends read.
const Table = "products"

// ErrUnavailable means the backing store could not be reached or queried.
var ErrUnavailable = errors.New("catalog unavailable")

// Product is one catalog record. Nullable columns decode to "".
type Product struct {
	Name                 string `json:"name" yaml:"name"`
	Category             string `json:"category" yaml:"category"`
	Subcategory          string `json:"subcategory,omitempty" yaml:"subcategory"`
	SkinTone             string `json:"skin_tone" yaml:"skin_tone"`
	SkinType             string `json:"skin_type" yaml:"skin_type"`
	SkinConcern          string `json:"skin_concern" yaml:"skin_concern"`
	SkinTexture          string `json:"skin_texture" yaml:"skin_texture"`
	Undertone            string `json:"undertone,omitempty" yaml:"undertone"`
	Shade                string `json:"shade,omitempty" yaml:"shade"`
	Finish               string `json:"finish,omitempty" yaml:"finish"`
	Recommendation       string `json:"recommendation,omitempty" yaml:"recommendation"`
	MakeupRecommendation string `json:"makeup_recommendation,omitempty" yaml:"makeup_recommendation"`
	ImagePath            string `json:"image_path,omitempty" yaml:"image_path"`
	Link                 string `json:"link" yaml:"link"`
}

// Columns lists the physical column names in scan order.
var Columns = []string{
	"name", "category", "subcategory",
	"skin_tone", "skin_type", "skin_concern", "skin_texture",
	"undertone", "shade", "finish",
	"recommendation", "makeup_recommendation",
	"image_path", "link",
}

// Field returns the value of a physical column.
func (p Product) Field(column string) string {
	switch column {
	case "name":
		return p.Name
	case "category":
		return p.Category
	case "subcategory":
		return p.Subcategory
	case "skin_tone":
		return p.SkinTone
	case "skin_type":
		return p.SkinType
	case "skin_concern":
		return p.SkinConcern
	case "skin_texture":
		return p.SkinTexture
	case "undertone":
		return p.Undertone
	case "shade":
		return p.Shade
	case "finish":
		return p.Finish
	case "recommendation":
		return p.Recommendation
	case "makeup_recommendation":
		return p.MakeupRecommendation
	case "image_path":
		return p.ImagePath
	case "link":
		return p.Link
	}
	return ""
}

// HasImage reports whether the product can appear in the gallery.
func (p Product) HasImage() bool {
	return p.ImagePath != ""
}

// ScanProduct reads a row selected with Columns. scan is rows.Scan of either
// database/sql or pgx.
func ScanProduct(scan func(dest ...any) error) (Product, error) {
	var cols [14]sql.NullString
	dest := make([]any, len(cols))
	for i := range cols {
		dest[i] = &cols[i]
	}
	if err := scan(dest...); err != nil {
		return Product{}, err
	}
	return Product{
		Name:                 cols[0].String,
		Category:             cols[1].String,
		Subcategory:          cols[2].String,
		SkinTone:             cols[3].String,
		SkinType:             cols[4].String,
		SkinConcern:          cols[5].String,
		SkinTexture:          cols[6].String,
		Undertone:            cols[7].String,
		Shade:                cols[8].String,
		Finish:               cols[9].String,
		Recommendation:       cols[10].String,
		MakeupRecommendation: cols[11].String,
		ImagePath:            cols[12].String,
		Link:                 cols[13].String,
	}, nil
}

// MatchQuery selects products for a set of skin attributes. Category and Undertone
// are optional filters.
type MatchQuery struct {
	Tone      string `json:"skin_tone"`
	Type      string `json:"skin_type"`
	Concern   string `json:"skin_concern"`
	Texture   string `json:"skin_texture"`
	Category  string `json:"category,omitempty"`
	Undertone string `json:"undertone,omitempty"`
}

// QueryFromVector builds a query from decoded attributes without the optional filters.
func QueryFromVector(v attributes.Vector) MatchQuery {
	return MatchQuery{Tone: v.Tone(), Type: v.Type(), Concern: v.Concern(), Texture: v.Texture()}
}

// Validate requires the four mandatory attributes.
func (q MatchQuery) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"skin_tone", q.Tone},
		{"skin_type", q.Type},
		{"skin_concern", q.Concern},
		{"skin_texture", q.Texture},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required attributes: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Store is the read-only catalog collaborator.
type Store interface {
	FindByAttributes(ctx context.Context, q MatchQuery) ([]Product, error)
	// FindByName returns false when no product has exactly that name.
	FindByName(ctx context.Context, name string) (Product, bool, error)
	// FindGallery returns up to limit products that have an image.
	FindGallery(ctx context.Context, limit int) ([]Product, error)
	Ping(ctx context.Context) error
	Close() error
}

// NameLister is implemented by stores that can enumerate product names.
type NameLister interface {
	Names(ctx context.Context) ([]string, error)
}
