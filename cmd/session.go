package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/jules/internal/jules"
	"github.com/joescharf/jules/internal/models"
	"github.com/joescharf/jules/internal/output"
)

var (
	sessionActive    bool
	sessionPageSize  int
	sessionPageToken string
	sessionAllPages  bool

	createSource       string
	createBranch       string
	createTitle        string
	createPlanApproval bool
	createAutoMode     string

	watchInterval time.Duration
	historyLimit  int
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions", "s"},
	Short:   "Manage Jules coding sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionListRun(sessionActive, sessionPageSize, sessionPageToken, sessionAllPages)
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionListRun(sessionActive, sessionPageSize, sessionPageToken, sessionAllPages)
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show session details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionShowRun(args[0])
	},
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create <prompt>",
	Short: "Create a new coding session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionCreateRun(args[0])
	},
}

var sessionMessageCmd = &cobra.Command{
	Use:   "message <session> <message>",
	Short: "Send a follow-up message to a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionMessageRun(args[0], args[1])
	},
}

var sessionApproveCmd = &cobra.Command{
	Use:   "approve <session>",
	Short: "Approve the session's plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionApproveRun(args[0])
	},
}

var sessionWatchCmd = &cobra.Command{
	Use:   "watch <session>",
	Short: "Follow a session's activity until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionWatchRun(cmd.Context(), args[0])
	},
}

var sessionHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show sessions launched from this machine",
	Long:  "Show the local launch log: sessions created via this CLI or its MCP server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionHistoryRun()
	},
}

var sessionDigestCmd = &cobra.Command{
	Use:   "digest <session>",
	Short: "Summarize a session with an LLM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionDigestRun(cmd.Context(), args[0])
	},
}

func init() {
	for _, c := range []*cobra.Command{sessionCmd, sessionListCmd} {
		c.Flags().BoolVar(&sessionActive, "active", false, "Only sessions that are not COMPLETED or FAILED")
		c.Flags().IntVar(&sessionPageSize, "page-size", 30, "Sessions per page (1-100)")
		c.Flags().StringVar(&sessionPageToken, "page-token", "", "Pagination token from a previous page")
		c.Flags().BoolVar(&sessionAllPages, "all-pages", false, "Fetch every page")
	}

	sessionCreateCmd.Flags().StringVarP(&createSource, "source", "s", "", "Source repo (e.g. sources/github/owner/repo)")
	sessionCreateCmd.Flags().StringVarP(&createBranch, "branch", "b", "", "Branch to start from")
	sessionCreateCmd.Flags().StringVarP(&createTitle, "title", "t", "", "Session title")
	sessionCreateCmd.Flags().BoolVar(&createPlanApproval, "require-plan-approval", false, "Wait for plan approval before executing")
	sessionCreateCmd.Flags().StringVar(&createAutoMode, "automation-mode", "", "FULLY_AUTOMATIC or SEMI_AUTOMATIC")
	_ = sessionCreateCmd.MarkFlagRequired("source")

	sessionWatchCmd.Flags().DurationVar(&watchInterval, "interval", 10*time.Second, "Poll interval")
	sessionHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Max launches to show (0 for all)")

	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionMessageCmd)
	sessionCmd.AddCommand(sessionApproveCmd)
	sessionCmd.AddCommand(sessionWatchCmd)
	sessionCmd.AddCommand(sessionHistoryCmd)
	sessionCmd.AddCommand(sessionDigestCmd)
	rootCmd.AddCommand(sessionCmd)
}

func sessionListRun(activeOnly bool, pageSize int, pageToken string, allPages bool) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	opts := jules.ListOptions{PageSize: pageSize, PageToken: pageToken}
	if activeOnly {
		opts.Filter = `state != "COMPLETED" AND state != "FAILED"`
	}

	var sessions []models.Session
	var nextToken string
	for {
		list, err := c.ListSessions(ctx, opts)
		if err != nil {
			return err
		}
		sessions = models.MergePage(sessions, list.Sessions)
		nextToken = list.NextPageToken
		if !allPages || nextToken == "" {
			break
		}
		opts.PageToken = nextToken
	}

	if activeOnly {
		filtered := sessions[:0:0]
		for _, s := range sessions {
			if !s.State.Terminal() {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}

	if len(sessions) == 0 {
		ui.Info("No sessions found. Use 'jules session create' to start one.")
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "State", "Created"})
	for _, s := range sessions {
		table.Append([]string{
			s.ID,
			truncate(s.Title, 50),
			output.StateColor(s.State),
			timeAgo(parseTime(s.CreateTime)),
		})
	}
	table.Render()

	if nextToken != "" {
		fmt.Fprintln(ui.Out)
		ui.Info("More results: --page-token %s", nextToken)
	}
	return nil
}

func sessionShowRun(ref string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	s, err := c.GetSession(ctx, ref)
	if err != nil {
		return err
	}

	printSession(s)
	return nil
}

func printSession(s *models.Session) {
	title := s.Title
	if title == "" {
		title = s.Name
	}
	fmt.Fprintf(ui.Out, "%s\n", output.Cyan(title))
	fmt.Fprintf(ui.Out, "  Name:    %s\n", s.Name)
	fmt.Fprintf(ui.Out, "  State:   %s\n", output.StateColor(s.State))
	if s.SourceContext != nil {
		fmt.Fprintf(ui.Out, "  Source:  %s\n", s.SourceContext.Source)
		if s.SourceContext.Branch != "" {
			fmt.Fprintf(ui.Out, "  Branch:  %s\n", s.SourceContext.Branch)
		}
	}
	if s.CreateTime != "" {
		fmt.Fprintf(ui.Out, "  Created: %s\n", s.CreateTime)
	}
	if s.URL != "" {
		fmt.Fprintf(ui.Out, "  URL:     %s\n", s.URL)
	}
	for _, out := range s.Outputs {
		if pr := out.PullRequest; pr != nil {
			fmt.Fprintf(ui.Out, "  PR:      %s (%s)\n", output.Green(pr.URL), pr.State)
		}
	}
	if s.Prompt != "" {
		fmt.Fprintf(ui.Out, "\n  %s\n", truncate(s.Prompt, 200))
	}
}

func sessionCreateRun(prompt string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	req := models.CreateSessionRequest{
		Prompt: prompt,
		SourceContext: models.SourceContext{
			Source: jules.SourceName(createSource),
			Branch: createBranch,
		},
		Title:               createTitle,
		RequirePlanApproval: createPlanApproval,
		AutomationMode:      models.AutomationMode(createAutoMode),
	}

	if dryRun {
		ui.DryRunMsg("Would create session on %s: %s", req.SourceContext.Source, truncate(prompt, 80))
		return nil
	}

	s, err := c.CreateSession(ctx, req)
	if err != nil {
		return err
	}

	// Best-effort launch log.
	if st, err := getStore(); err == nil {
		_ = st.RecordLaunch(ctx, &models.Launch{
			SessionName: s.Name,
			SessionID:   s.ID,
			Title:       s.Title,
			Source:      req.SourceContext.Source,
			Branch:      req.SourceContext.Branch,
			Prompt:      req.Prompt,
		})
	}

	ui.Success("Session created: %s", s.Name)
	printSession(s)
	return nil
}

func sessionMessageRun(ref, message string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would send to %s: %s", jules.SessionName(ref), truncate(message, 80))
		return nil
	}

	result, err := c.SendMessage(context.Background(), ref, message)
	if err != nil {
		return err
	}

	ui.Success("Message sent to %s", result.Session)
	return nil
}

func sessionApproveRun(ref string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would approve plan for %s", jules.SessionName(ref))
		return nil
	}

	result, err := c.ApprovePlan(context.Background(), ref)
	if err != nil {
		return err
	}

	ui.Success("Plan approved for %s", result.Session)
	return nil
}

// sessionWatchRun polls the session and prints new activities as they
// arrive, until the session reaches a terminal state or ctx is cancelled.
func sessionWatchRun(ctx context.Context, ref string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		s, err := c.GetSession(ctx, ref)
		if err != nil {
			return err
		}

		if err := watchPrintNew(ctx, c, ref, seen); err != nil {
			ui.VerboseLog("activity poll failed: %v", err)
		}

		if s.State.Terminal() {
			if s.State == models.SessionStateCompleted {
				ui.Success("Session completed")
			} else {
				ui.Error("Session failed")
			}
			for _, out := range s.Outputs {
				if pr := out.PullRequest; pr != nil {
					ui.Info("Pull request: %s", pr.URL)
				}
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func watchPrintNew(ctx context.Context, c *jules.Client, ref string, seen map[string]bool) error {
	opts := jules.ListOptions{PageSize: 50}
	for {
		list, err := c.ListActivities(ctx, ref, opts)
		if err != nil {
			return err
		}
		for _, a := range list.Activities {
			if seen[a.Name] {
				continue
			}
			seen[a.Name] = true
			printActivity(&a)
		}
		if list.NextPageToken == "" {
			return nil
		}
		opts.PageToken = list.NextPageToken
	}
}

func sessionHistoryRun() error {
	st, err := getStore()
	if err != nil {
		return err
	}

	launches, err := st.ListLaunches(context.Background(), historyLimit)
	if err != nil {
		return err
	}

	if len(launches) == 0 {
		ui.Info("No sessions launched from this machine yet.")
		return nil
	}

	table := ui.Table([]string{"Session", "Title", "Source", "Launched"})
	for _, l := range launches {
		table.Append([]string{
			l.SessionName,
			truncate(l.Title, 40),
			l.Source,
			timeAgo(l.CreatedAt),
		})
	}
	table.Render()
	return nil
}

func sessionDigestRun(ctx context.Context, ref string) error {
	lc := newLLMClient()
	if lc == nil {
		return fmt.Errorf("no Anthropic API key configured (set anthropic.api_key or ANTHROPIC_API_KEY)")
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	s, err := c.GetSession(ctx, ref)
	if err != nil {
		return err
	}

	var activities []models.Activity
	opts := jules.ListOptions{PageSize: 50}
	for {
		list, err := c.ListActivities(ctx, ref, opts)
		if err != nil {
			return err
		}
		activities = models.MergePage(activities, list.Activities)
		if list.NextPageToken == "" {
			break
		}
		opts.PageToken = list.NextPageToken
	}

	digest, err := lc.SummarizeSession(ctx, s, activities)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n\n", output.Cyan(s.Name), output.StateColor(s.State))
	fmt.Fprintln(ui.Out, digest)
	return nil
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
