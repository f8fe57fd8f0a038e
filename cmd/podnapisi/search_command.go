package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Belphemur/PodnapisiClient/internal/client"
	"github.com/Belphemur/PodnapisiClient/internal/models"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		series       string
		season       int
		episode      int
		year         int
		lang         string
		forced       bool
		perfectMatch bool
		kind         string
		limit        int
		jsonOutput   bool
	)

	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search subtitles, most downloaded first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := models.SearchQuery{
				Title:        strings.TrimSpace(args[0]),
				Language:     strings.ToLower(strings.TrimSpace(lang)),
				PerfectMatch: perfectMatch,
				MediaKind:    models.ParseMediaKind(kind),
			}
			if query.Title == "" {
				return errors.New("title must not be empty")
			}
			flags := cmd.Flags()
			if flags.Changed("series") {
				query.SeriesName = &series
			}
			if flags.Changed("season") {
				query.Season = &season
			}
			if flags.Changed("episode") {
				query.Episode = &episode
			}
			if flags.Changed("year") {
				query.Year = &year
			}
			if flags.Changed("forced") {
				query.Forced = &forced
			}

			return ctx.withClient(func(c client.Client) error {
				candidates, err := c.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				if limit > 0 && len(candidates) > limit {
					candidates = candidates[:limit]
				}

				if jsonOutput {
					return writeJSON(cmd, candidates)
				}
				return renderCandidates(cmd, candidates)
			})
		},
	}

	cmd.Flags().StringVar(&series, "series", "", "Series name, used as keyword instead of the title")
	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().IntVar(&episode, "episode", 0, "Episode number")
	cmd.Flags().IntVar(&year, "year", 0, "Production year")
	cmd.Flags().StringVarP(&lang, "language", "l", "en", "Two-letter language code")
	cmd.Flags().BoolVar(&forced, "forced", false, "Only forced subtitles (not supported upstream, returns nothing)")
	cmd.Flags().BoolVar(&perfectMatch, "perfect-match", false, "Only perfect matches (not supported upstream, returns nothing)")
	cmd.Flags().StringVar(&kind, "kind", "", "Media kind: episode or movie")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results, 0 for all")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")

	return cmd
}

func renderCandidates(cmd *cobra.Command, candidates []models.SubtitleCandidate) error {
	out := cmd.OutOrStdout()
	if len(candidates) == 0 {
		_, err := fmt.Fprintln(out, "No subtitles found")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLANGUAGE\tDOWNLOADS\tRATING\tRELEASE")
	for _, c := range candidates {
		downloads := "-"
		if c.DownloadCount != nil {
			downloads = strconv.Itoa(*c.DownloadCount)
		}
		rating := "-"
		if c.Rating != nil {
			rating = strconv.FormatFloat(*c.Rating, 'f', -1, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Language, downloads, rating, c.Name)
	}
	return tw.Flush()
}
