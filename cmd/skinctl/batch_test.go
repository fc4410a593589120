package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anime-shed/skin-advisor-go/internal/catalog/memory"
	"github.com/anime-shed/skin-advisor-go/internal/classifier"
	"github.com/anime-shed/skin-advisor-go/internal/classifier/classifiertest"
	"github.com/anime-shed/skin-advisor-go/internal/face"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
	"github.com/anime-shed/skin-advisor-go/internal/preprocess"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/internal/service"
	"github.com/anime-shed/skin-advisor-go/internal/storage"
)

func init() {
	logger.Silence()
}

// sizeDetector reports a face only in images wider than min.
type sizeDetector struct{ min int }

func (d sizeDetector) Detect(ctx context.Context, img image.Image) ([]image.Rectangle, error) {
	b := img.Bounds()
	if b.Dx() <= d.min {
		return nil, nil
	}
	return []image.Rectangle{b.Inset(10)}, nil
}

func (d sizeDetector) Close() error { return nil }

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(150 + x%50), G: 120, B: uint8(100 + y%30), A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "b.png"), 4, 4)
	writeImage(t, filepath.Join(dir, "nested", "a.PNG"), 4, 4)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	files, err := collectImages(dir)
	if err != nil {
		t.Fatalf("collectImages() error = %v", err)
	}
	want := []string{"b.png", filepath.Join("nested", "a.PNG")}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "face1.png"), 200, 200)
	writeImage(t, filepath.Join(dir, "face2.png"), 220, 200)
	writeImage(t, filepath.Join(dir, "tiny.png"), 40, 40)
	if err := os.WriteFile(filepath.Join(dir, "broken.jpg"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := memory.Load("../../internal/catalog/testdata/products.yaml")
	if err != nil {
		t.Fatal(err)
	}
	h := classifier.NewHandle(classifier.ArtifactBuilder{
		Factory:  &classifiertest.Factory{},
		Backbone: classifier.MobileNetV2,
		Seed:     classifier.DefaultSeed,
	})
	if err := h.Load(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	svc := service.NewSkinAnalysisService(service.Dependencies{
		Locator:    face.NewLocator(sizeDetector{min: 100}),
		Pipeline:   preprocess.NewPipeline(preprocess.Adjustment{}),
		Classifier: h,
		Matcher:    recommender.NewMatcher(store),
	})

	files, err := collectImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	batchOpts.workers = 2
	var out bytes.Buffer
	summary := runBatch(context.Background(), svc, storage.NewLocalImageFetcher(dir), files, service.AnalyzeOptions{}, &out)

	if summary != (batchSummary{Total: 4, Succeeded: 2, NoFace: 1, OtherFails: 1}) {
		t.Errorf("summary = %+v", summary)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines", len(lines))
	}
	for _, l := range lines {
		var rec batchLine
		if err := json.Unmarshal([]byte(l), &rec); err != nil {
			t.Fatalf("line %q: %v", l, err)
		}
		if rec.File == "broken.jpg" && rec.Kind != "invalid_image_path" {
			t.Errorf("broken.jpg kind = %q", rec.Kind)
		}
	}
}
