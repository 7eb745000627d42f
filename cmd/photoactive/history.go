package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/photoactive-studio/photoactive/internal/locale"
	"github.com/photoactive-studio/photoactive/internal/logging"
	"github.com/photoactive-studio/photoactive/internal/session"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the local archive of past diagnoses",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived diagnoses, most recent first",
	Run:   runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Render an archived diagnosis",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryShow,
}

var historyExportCmd = &cobra.Command{
	Use:   "export <path.zip>",
	Short: "Export the archive as a ZIP with reports and previews",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryExport,
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyExportCmd)
}

func openHistory() *session.History {
	hist, err := session.Open(session.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history")
	}
	return hist
}

func runHistoryList(cmd *cobra.Command, args []string) {
	logging.Init()
	lang, err := locale.Parse(langFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid --lang")
	}

	entries := openHistory().Entries()
	if len(entries) == 0 {
		fmt.Println(locale.T(lang, locale.KeyNoHistory))
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDATE\tSCORE\tPROFILE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\n",
			e.ID,
			e.Name,
			e.Timestamp.Format("2006-01-02 15:04"),
			e.Report.Layers.Technical.Score,
			e.Report.PainProfile.Name,
		)
	}
	tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	logging.Init()

	entry, ok := openHistory().Find(args[0])
	if !ok {
		log.Fatal().Str("id", args[0]).Msg("No archived diagnosis with that ID")
	}

	// Archived entries render in the language they were produced in.
	renderReport(os.Stdout, &entry.Report, entry.Language, entry.Name)
}

func runHistoryExport(cmd *cobra.Command, args []string) {
	logging.Init()

	f, err := os.Create(args[0])
	if err != nil {
		log.Fatal().Err(err).Str("path", args[0]).Msg("Failed to create archive file")
	}
	defer f.Close()

	hist := openHistory()
	if err := hist.ExportZip(f); err != nil {
		log.Fatal().Err(err).Msg("Failed to export history")
	}
	log.Info().Str("path", args[0]).Int("entries", hist.Len()).Msg("History exported")
}
