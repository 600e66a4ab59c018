package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/jules/internal/jules"
	"github.com/joescharf/jules/internal/models"
	"github.com/joescharf/jules/internal/output"
)

var (
	sourcePageSize  int
	sourcePageToken string
	sourceFilter    string
	sourceAllPages  bool
)

var sourceCmd = &cobra.Command{
	Use:     "source",
	Aliases: []string{"sources", "src"},
	Short:   "Browse repositories Jules can work with",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sourceListRun()
	},
}

var sourceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected source repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sourceListRun()
	},
}

var sourceShowCmd = &cobra.Command{
	Use:   "show <source>",
	Short: "Show details for one source, including branches",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sourceShowRun(args[0])
	},
}

func init() {
	sourceListCmd.Flags().IntVar(&sourcePageSize, "page-size", 30, "Sources per page (1-100)")
	sourceListCmd.Flags().StringVar(&sourcePageToken, "page-token", "", "Pagination token from a previous page")
	sourceListCmd.Flags().StringVar(&sourceFilter, "filter", "", "Server-side filter expression")
	sourceListCmd.Flags().BoolVar(&sourceAllPages, "all-pages", false, "Fetch every page")

	sourceCmd.AddCommand(sourceListCmd)
	sourceCmd.AddCommand(sourceShowCmd)
	rootCmd.AddCommand(sourceCmd)
}

func sourceListRun() error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	opts := jules.ListOptions{
		PageSize:  sourcePageSize,
		PageToken: sourcePageToken,
		Filter:    sourceFilter,
	}

	var sources []models.Source
	var nextToken string
	for {
		list, err := c.ListSources(ctx, opts)
		if err != nil {
			return err
		}
		sources = models.MergePage(sources, list.Sources)
		nextToken = list.NextPageToken
		if !sourceAllPages || nextToken == "" {
			break
		}
		opts.PageToken = nextToken
	}

	if len(sources) == 0 {
		ui.Info("No sources connected. Connect repos at https://jules.google.com")
		return nil
	}

	table := ui.Table([]string{"Name", "Repo", "Default Branch", "Private"})
	for _, src := range sources {
		repo, branch, private := "", "", ""
		if gh := src.GitHubRepo; gh != nil {
			repo = fmt.Sprintf("%s/%s", gh.Owner, gh.Repo)
			if gh.DefaultBranch != nil {
				branch = gh.DefaultBranch.DisplayName
			}
			if gh.IsPrivate != nil && *gh.IsPrivate {
				private = "yes"
			}
		}
		table.Append([]string{src.Name, repo, branch, private})
	}
	table.Render()

	if nextToken != "" {
		fmt.Fprintln(ui.Out)
		ui.Info("More results: --page-token %s", nextToken)
	}
	return nil
}

func sourceShowRun(name string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	src, err := c.GetSource(ctx, jules.SourceName(name))
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(src.Name))
	if gh := src.GitHubRepo; gh != nil {
		fmt.Fprintf(ui.Out, "  Repo:           %s/%s\n", gh.Owner, gh.Repo)
		if gh.DefaultBranch != nil {
			fmt.Fprintf(ui.Out, "  Default branch: %s\n", gh.DefaultBranch.DisplayName)
		}
		if gh.IsPrivate != nil {
			fmt.Fprintf(ui.Out, "  Private:        %t\n", *gh.IsPrivate)
		}
		if len(gh.Branches) > 0 {
			fmt.Fprintf(ui.Out, "  Branches:\n")
			for _, b := range gh.Branches {
				fmt.Fprintf(ui.Out, "    - %s\n", b.DisplayName)
			}
		}
	}
	return nil
}
