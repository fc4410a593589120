package main

import (
	"bytes"
	"encoding/json"
	"testing"

	apperrors "github.com/anime-shed/skin-advisor-go/internal/errors"
	"github.com/anime-shed/skin-advisor-go/pkg/models"
)

func TestReportMatchStatus(t *testing.T) {
	t.Run("matched", func(t *testing.T) {
		var buf bytes.Buffer
		if err := reportMatchStatus(&buf, models.CatalogStatus{}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("no match prints typed status", func(t *testing.T) {
		var buf bytes.Buffer
		if err := reportMatchStatus(&buf, models.CatalogStatus{NoMatch: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got apperrors.AppError
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if got.Type != apperrors.ErrorTypeNoMatchFound || got.Message == "" {
			t.Errorf("status = %+v", got)
		}
	})

	t.Run("degraded fails", func(t *testing.T) {
		var buf bytes.Buffer
		err := reportMatchStatus(&buf, models.CatalogStatus{Degraded: true, Reason: "catalog_unavailable"})
		if !apperrors.IsType(err, apperrors.ErrorTypeDatabaseUnavailable) {
			t.Errorf("error = %v, want database_unavailable", err)
		}
		if buf.Len() != 0 {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}
