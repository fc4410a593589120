// Package recommender matches decoded skin attributes against the catalog.
package recommender

import (
	"fmt"
	"strings"

	"github.com/anime-shed/skin-advisor-go/internal/catalog"
)

// Mode selects which catalog slice and field set a recommendation returns.
type Mode string

const (
	ModeGeneral  Mode = "general"
	ModeSkincare Mode = "skincare"
	ModeMakeup   Mode = "makeup"
)

// ParseMode resolves a serving mode. Empty means general.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeGeneral, ModeSkincare, ModeMakeup:
		return m, nil
	case "":
		return ModeGeneral, nil
	}
	return "", fmt.Errorf("unknown recommendation mode %q", s)
}

// Text used when a product lacks its category's recommendation.
const (
	SkincareFiller = "General skin-safe formulation for daily skincare."
	MakeupFiller   = "Choose shades that enhance your features."
)

// Recommendation returns the authoritative recommendation text for p's category,
// falling back to the category filler.
func Recommendation(p catalog.Product) string {
	if strings.EqualFold(p.Category, catalog.CategoryMakeup) {
		if p.MakeupRecommendation != "" {
			return p.MakeupRecommendation
		}
		return MakeupFiller
	}
	if p.Recommendation != "" {
		return p.Recommendation
	}
	return SkincareFiller
}

// GeneralItem is the cross-category view.
type GeneralItem struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	ImagePath string `json:"image_path,omitempty"`
	Link      string `json:"link"`
}

// SkincareItem is the skincare view.
type SkincareItem struct {
	Name           string `json:"name"`
	SkinType       string `json:"skin_type"`
	SkinConcern    string `json:"skin_concern"`
	Recommendation string `json:"recommendation"`
	ImagePath      string `json:"image_path,omitempty"`
	Link           string `json:"link"`
}

// MakeupItem is the makeup view.
type MakeupItem struct {
	Name                 string `json:"name"`
	Subcategory          string `json:"subcategory"`
	Shade                string `json:"shade,omitempty"`
	Finish               string `json:"finish,omitempty"`
	Undertone            string `json:"undertone,omitempty"`
	MakeupRecommendation string `json:"makeup_recommendation"`
	ImagePath            string `json:"image_path,omitempty"`
	Link                 string `json:"link"`
}

// GalleryItem is the browsing view.
type GalleryItem struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	ImagePath   string `json:"image_path"`
	Link        string `json:"link"`
}

func toGeneral(p catalog.Product) GeneralItem {
	return GeneralItem{Name: p.Name, Category: p.Category, ImagePath: p.ImagePath, Link: p.Link}
}

func toSkincare(p catalog.Product) SkincareItem {
	return SkincareItem{
		Name:           p.Name,
		SkinType:       p.SkinType,
		SkinConcern:    p.SkinConcern,
		Recommendation: Recommendation(p),
		ImagePath:      p.ImagePath,
		Link:           p.Link,
	}
}

func toMakeup(p catalog.Product) MakeupItem {
	return MakeupItem{
		Name:                 p.Name,
		Subcategory:          p.Subcategory,
		Shade:                p.Shade,
		Finish:               p.Finish,
		Undertone:            p.Undertone,
		MakeupRecommendation: Recommendation(p),
		ImagePath:            p.ImagePath,
		Link:                 p.Link,
	}
}

func toGallery(p catalog.Product) GalleryItem {
	return GalleryItem{Name: p.Name, Category: p.Category, Subcategory: p.Subcategory, ImagePath: p.ImagePath, Link: p.Link}
}

// UngroupedSubcategory labels makeup products without a subcategory.
const UngroupedSubcategory = "Other"

// Group is one subcategory of makeup results.
type Group struct {
	Subcategory string       `json:"subcategory"`
	Items       []MakeupItem `json:"items"`
}

// GroupBySubcategory buckets items by subcategory in order of first appearance.
func GroupBySubcategory(items []MakeupItem) []Group {
	var groups []Group
	index := make(map[string]int)
	for _, it := range items {
		key := it.Subcategory
		if key == "" {
			key = UngroupedSubcategory
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Subcategory: key})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}
