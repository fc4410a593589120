package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/anime-shed/skin-advisor-go/internal/classifier"
	"github.com/anime-shed/skin-advisor-go/internal/classifier/classifiertest"
	"github.com/anime-shed/skin-advisor-go/internal/logger"
)

var exportOpts struct {
	dir      string
	backbone string
	seed     uint64
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and manage classifier artifacts",
}

// Heads depend only on the backbone's feature width, so export needs no inference runtime.
var modelExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write freshly initialized attribute heads as a model artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		backboneName := exportOpts.backbone
		if backboneName == "" {
			backboneName = cfg.Model.Backbone
		}
		backbone, err := classifier.ParseBackbone(backboneName)
		if err != nil {
			return err
		}
		dir := exportOpts.dir
		if dir == "" {
			dir = cfg.Model.ArtifactPath
		}

		m, err := classifier.NewFreshModel(classifiertest.NewExtractor(backbone), exportOpts.seed)
		if err != nil {
			return err
		}
		defer m.Close()
		if err := classifier.SaveArtifact(dir, m); err != nil {
			return err
		}

		logger.Component("skinctl").WithFields(logrus.Fields{
			"backbone": backbone,
			"dir":      dir,
			"seed":     exportOpts.seed,
			"heads":    len(m.Heads()),
		}).Info("Model artifact exported")
		_, err = fmt.Fprintln(cmd.OutOrStdout(), dir)
		return err
	},
}

var modelInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Load the configured model and print its status",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openContainer(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Close()
		return printJSON(cmd.OutOrStdout(), c.Service().Health(cmd.Context()))
	},
}

func init() {
	f := modelExportCmd.Flags()
	f.StringVarP(&exportOpts.dir, "out", "o", "", "Artifact directory (default MODEL_ARTIFACT)")
	f.StringVarP(&exportOpts.backbone, "backbone", "b", "", "Backbone name (default MODEL_BACKBONE)")
	f.Uint64Var(&exportOpts.seed, "seed", classifier.DefaultSeed, "Initialization seed")

	modelCmd.AddCommand(modelExportCmd, modelInfoCmd)
	rootCmd.AddCommand(modelCmd)
}
