package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/mediaget-go/internal/app"
	"github.com/yourusername/mediaget-go/internal/infrastructure"
)

var streamsCmd = &cobra.Command{
	Use:   "streams [url]",
	Short: "List the streams of a page URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync()

		media, err := infrastructure.NewDirectResolver(log).Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Title: %s\n", media.Title)
		fmt.Printf("ID:    %s\n\n", media.ID)

		ids := media.StreamIDs()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCONTAINER\tBITRATE\tSIZE\tURL")
		for i, s := range media.Streams {
			size := "-"
			if s.Width > 0 && s.Height > 0 {
				size = fmt.Sprintf("%dx%d", s.Width, s.Height)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				ids[i], s.Container, s.Bitrate, size, truncate(s.URL, 60))
		}
		w.Flush()

		selection, _ := cmd.Flags().GetString("stream")
		if selection != "" {
			stream, err := app.SelectStream(media, selection)
			if err != nil {
				return err
			}
			id := stream.ID
			if id == "" {
				id = "default"
			}
			fmt.Printf("\nSelected: %s\n", id)
		}
		return nil
	},
}

func init() {
	streamsCmd.Flags().StringP("stream", "s", "", "Show which stream this selection picks")
}
