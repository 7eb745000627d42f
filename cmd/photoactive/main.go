package main

import (
	"context"
	"errors"
	"os"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/photoactive-studio/photoactive/internal/auth"
	"github.com/photoactive-studio/photoactive/internal/diagnosis"
	"github.com/photoactive-studio/photoactive/internal/imaging"
	"github.com/photoactive-studio/photoactive/internal/locale"
	"github.com/photoactive-studio/photoactive/internal/logging"
	"github.com/photoactive-studio/photoactive/internal/session"
)

// CLI flags
var (
	titleFlag     string
	langFlag      string
	modelFlag     string
	noHistoryFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "photoactive [image-file]",
	Short: "Deep photo diagnosis with the PhotoActive methodology",
	Long: `PhotoActive sends a photograph to Gemini for a structured critique across
five diagnostic layers (technical, emotional, communication, light, identity),
renders the report, and archives it locally.

With no image argument a native file picker opens.

Examples:
  photoactive photo.jpg
  photoactive photo.jpg --title "Morning Fog" --lang en
  photoactive --model gemini-3-pro-preview
  photoactive history list
  photoactive history export archive.zip`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAnalyze,
}

func init() {
	rootCmd.Flags().StringVarP(&titleFlag, "title", "t", "", "Photo title (optional)")
	rootCmd.PersistentFlags().StringVarP(&langFlag, "lang", "l", string(locale.Default), "Report language: he or en")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default from PHOTOACTIVE_MODEL or built-in)")
	rootCmd.Flags().BoolVar(&noHistoryFlag, "no-history", false, "Do not record the result in the local archive")
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) {
	logging.Init()

	lang, err := locale.Parse(langFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --lang")
	}

	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		path, err = pickImageFile()
		if errors.Is(err, zenity.ErrCanceled) {
			log.Info().Msg("No image selected")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("File picker failed; pass the image path as an argument instead")
		}
	}

	img, err := imaging.FromFile(path)
	if errors.Is(err, imaging.ErrNotImage) {
		fatalLocalized(lang, diagnosis.KindInvalidInput, err)
	}
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to load image")
	}

	sess := session.New()
	if err := sess.SetLanguage(lang); err != nil {
		log.Fatal().Err(err).Msg("Failed to set language")
	}
	if err := sess.SelectImage(img); err != nil {
		log.Fatal().Err(err).Msg("Failed to select image")
	}
	if titleFlag != "" {
		if err := sess.SetTitle(titleFlag); err != nil {
			log.Fatal().Err(err).Msg("Failed to set title")
		}
	}
	if err := sess.Begin(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start analysis")
	}

	analyzer := diagnosis.NewAnalyzer(auth.GetAPIKey, diagnosis.WithModel(modelFlag))

	log.Info().Str("path", path).Str("lang", string(lang)).Msg("Starting deep diagnosis")
	report, err := analyzer.Analyze(context.Background(), img, lang, titleFlag)
	if err != nil {
		sess.Fail(err)
		fatalLocalized(lang, diagnosis.KindOf(err), err)
	}
	sess.Complete(report)

	if !noHistoryFlag {
		hist, err := session.Open(session.Config{})
		if err != nil {
			log.Warn().Err(err).Msg("History unavailable; result not recorded")
		} else {
			entry := session.NewEntry(titleFlag, lang, report, img)
			if _, err := hist.Record(entry); err != nil {
				log.Warn().Err(err).Msg("Failed to record history entry")
			}
		}
	}

	renderReport(os.Stdout, report, lang, titleFlag)
}

// fatalLocalized prints the localized failure message and exits non-zero.
func fatalLocalized(lang locale.Tag, kind diagnosis.Kind, err error) {
	log.Error().Err(err).Str("kind", kind.String()).Msg("Diagnosis failed")
	os.Stderr.WriteString(locale.ErrorMessage(lang, kind.String()) + "\n")
	os.Exit(1)
}

// pickImageFile opens a native dialog filtered to image files.
func pickImageFile() (string, error) {
	return zenity.SelectFile(
		zenity.Title("Select a photo"),
		zenity.FileFilters{
			{Name: "Images", Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"}, CaseFold: true},
		},
	)
}
