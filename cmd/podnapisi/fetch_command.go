package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Belphemur/PodnapisiClient/internal/client"
	"github.com/Belphemur/PodnapisiClient/internal/config"
	"github.com/Belphemur/PodnapisiClient/internal/models"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "fetch <subtitle-id>",
		Short: "Download a subtitle by the id printed by search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return ctx.withClient(func(c client.Client) error {
				content, err := c.Fetch(cmd.Context(), id)
				if err != nil {
					return err
				}

				if output == "-" {
					_, err := io.Copy(cmd.OutOrStdout(), content.Content)
					return err
				}

				path := output
				if path == "" {
					path = defaultOutputName(id, content)
				}
				if err := writeSubtitleFile(path, content.Content); err != nil {
					return err
				}

				logger := config.GetLogger()
				logger.Info().
					Str("path", path).
					Str("format", content.Format).
					Str("language", content.Language).
					Int("size", content.Size).
					Msg("Subtitle saved")
				_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `Output file, "-" for stdout (default: name from the archive)`)

	return cmd
}

// defaultOutputName uses the archive entry name, falling back to "{pid}.{lang}.{format}"
func defaultOutputName(id string, content *models.SubtitleContent) string {
	if content.Filename != "" {
		return filepath.Base(content.Filename)
	}
	candidateID, err := models.ParseCandidateID(id)
	if err != nil {
		return "subtitle." + content.Format
	}
	return fmt.Sprintf("%s.%s.%s", candidateID.ProviderID, content.Language, content.Format)
}

func writeSubtitleFile(path string, content io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
