package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"shortlink/internal/domain"
	"shortlink/internal/service"

	"github.com/spf13/cobra"
)

func createCmd() *cobra.Command {
	var (
		author      string
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Shorten a URL",
		Example: `  linkctl create https://go.dev/doc --tag go --tag docs
  linkctl create https://example.com --author ops --description "landing page"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			link, err := svc.CreateLink(cmd.Context(), service.NewLinkInput{
				OriginalURL: args[0],
				Author:      author,
				Tags:        tags,
				Description: description,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", link.ID)
			fmt.Fprintf(out, "Hash:      %s\n", link.Hash)
			fmt.Fprintf(out, "Short URL: %s\n", shortURL(link.Hash))
			return nil
		},
	}

	cmd.Flags().StringVar(&author, "author", "cli", "author recorded on the link")
	cmd.Flags().StringVar(&description, "description", "", "free-text description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")

	return cmd
}

func updateCmd() *cobra.Command {
	var (
		url         string
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change the target, tags or description of a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var update domain.LinkUpdate
			if cmd.Flags().Changed("url") {
				update.OriginalURL = &url
			}
			if cmd.Flags().Changed("tag") {
				update.Tags = &tags
			}
			if cmd.Flags().Changed("description") {
				update.Description = &description
			}

			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			link, err := svc.UpdateLink(cmd.Context(), args[0], update)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s -> %s\n", link.Hash, link.OriginalURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "new target URL")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replacement tag list (repeatable)")

	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a link; its hash is never handed out again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.DeleteLink(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a link as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			link, err := svc.GetLink(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(link)
		},
	}
}

func statsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <hash>",
		Short: "Show per-day click counts for a link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := svc.GetStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print stats as JSON")

	return cmd
}

func printStats(w io.Writer, stats *domain.LinkStats) {
	fmt.Fprintf(w, "Hash:  %s\n", stats.Hash)
	fmt.Fprintf(w, "URL:   %s\n", stats.OriginalURL)
	fmt.Fprintf(w, "Today: %d (%s)\n", stats.Today, stats.TodayKey)
	fmt.Fprintf(w, "Total: %d\n", stats.Total)

	for _, day := range stats.Clicks.Days() {
		fmt.Fprintf(w, "  %s  %d\n", day, stats.Clicks.Get(day))
	}
}

func shortURL(hash string) string {
	return strings.TrimRight(cfg.Server.BaseURL, "/") + "/" + hash
}
