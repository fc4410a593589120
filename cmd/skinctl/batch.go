package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/anime-shed/skin-advisor-go/internal/analyzer"
	apperrors "github.com/anime-shed/skin-advisor-go/internal/errors"
	"github.com/anime-shed/skin-advisor-go/internal/recommender"
	"github.com/anime-shed/skin-advisor-go/internal/service"
	"github.com/anime-shed/skin-advisor-go/internal/storage"
	"github.com/anime-shed/skin-advisor-go/pkg/models"
	"github.com/anime-shed/skin-advisor-go/pkg/validation"
)

var batchOpts struct {
	workers int
	out     string
	mode    string
	fast    bool
}

// batchLine is one JSONL record of a batch run.
type batchLine struct {
	File   string                 `json:"file"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	Kind   string                 `json:"kind,omitempty"`
}

type batchSummary struct {
	Total      int `json:"total"`
	Succeeded  int `json:"succeeded"`
	NoFace     int `json:"no_face_detected"`
	OtherFails int `json:"failed"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Analyze every JPEG/PNG under a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := recommender.ParseMode(batchOpts.mode)
		if err != nil {
			return err
		}
		files, err := collectImages(args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no images found under %s", args[0])
		}

		out := cmd.OutOrStdout()
		if batchOpts.out != "" && batchOpts.out != "-" {
			f, err := os.Create(batchOpts.out)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()

		summary := runBatch(cmd.Context(), c.Service(), storage.NewLocalImageFetcher(args[0]), files,
			service.AnalyzeOptions{Mode: mode, FastMode: batchOpts.fast}, out)
		return printJSON(cmd.ErrOrStderr(), summary)
	},
}

func init() {
	f := batchCmd.Flags()
	f.IntVarP(&batchOpts.workers, "workers", "w", 0, "Concurrent analyses (default: number of CPUs)")
	f.StringVarP(&batchOpts.out, "out", "o", "-", "JSONL output file, - for stdout")
	f.StringVarP(&batchOpts.mode, "mode", "m", "general", "Recommendation mode")
	f.BoolVar(&batchOpts.fast, "fast", true, "Assess photo quality on a downscaled crop")
	rootCmd.AddCommand(batchCmd)
}

// collectImages returns image files under root, relative to it, in lexical order.
func collectImages(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(validation.ImageExtensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

func runBatch(ctx context.Context, svc service.SkinAnalysisService, fetcher storage.ImageFetcher, files []string, opts service.AnalyzeOptions, out io.Writer) batchSummary {
	pool := analyzer.NewWorkerPool(batchOpts.workers)
	pool.Start()
	defer pool.Close()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	var (
		mu      sync.Mutex
		summary = batchSummary{Total: len(files)}
		enc     = json.NewEncoder(out)
	)
	for _, file := range files {
		pool.Submit(func() {
			line := analyzeOne(ctx, svc, fetcher, file, opts)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case line.Error == "":
				summary.Succeeded++
			case line.Kind == string(apperrors.ErrorTypeNoFaceDetected):
				summary.NoFace++
			default:
				summary.OtherFails++
			}
			_ = enc.Encode(line)
			_ = bar.Add(1)
		})
	}
	pool.Wait()
	_ = bar.Finish()
	return summary
}

func analyzeOne(ctx context.Context, svc service.SkinAnalysisService, fetcher storage.ImageFetcher, file string, opts service.AnalyzeOptions) batchLine {
	line := batchLine{File: file}
	frame, err := fetcher.FetchImage(ctx, file)
	if err != nil {
		err = apperrors.NewInvalidImagePathError(err)
	} else {
		line.Result, err = svc.AnalyzeFrame(ctx, frame, opts)
	}
	if err != nil {
		line.Error = err.Error()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			line.Kind = string(appErr.Type)
		}
	}
	return line
}
