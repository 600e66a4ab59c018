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
	activityPageSize  int
	activityPageToken string
	activityAllPages  bool
)

var activityCmd = &cobra.Command{
	Use:     "activity",
	Aliases: []string{"activities", "log"},
	Short:   "Inspect a session's activity log",
}

var activityListCmd = &cobra.Command{
	Use:   "list <session>",
	Short: "List a session's activities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return activityListRun(args[0])
	},
}

var activityShowCmd = &cobra.Command{
	Use:   "show <session> <activity>",
	Short: "Show one activity in full",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return activityShowRun(args[0], args[1])
	},
}

func init() {
	activityListCmd.Flags().IntVar(&activityPageSize, "page-size", 50, "Activities per page (1-100)")
	activityListCmd.Flags().StringVar(&activityPageToken, "page-token", "", "Pagination token from a previous page")
	activityListCmd.Flags().BoolVar(&activityAllPages, "all-pages", false, "Fetch every page")

	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityShowCmd)
	rootCmd.AddCommand(activityCmd)
}

func activityListRun(session string) error {
	c, err := getClient()
	if err != nil {
		return err
	}
	ctx := context.Background()

	opts := jules.ListOptions{PageSize: activityPageSize, PageToken: activityPageToken}

	var activities []models.Activity
	var nextToken string
	for {
		list, err := c.ListActivities(ctx, session, opts)
		if err != nil {
			return err
		}
		activities = models.MergePage(activities, list.Activities)
		nextToken = list.NextPageToken
		if !activityAllPages || nextToken == "" {
			break
		}
		opts.PageToken = nextToken
	}

	if len(activities) == 0 {
		ui.Info("No activity yet for %s", jules.SessionName(session))
		return nil
	}

	for i := range activities {
		printActivity(&activities[i])
	}

	if nextToken != "" {
		fmt.Fprintln(ui.Out)
		ui.Info("More results: --page-token %s", nextToken)
	}
	return nil
}

func activityShowRun(session, id string) error {
	c, err := getClient()
	if err != nil {
		return err
	}

	a, err := c.GetActivity(context.Background(), jules.ActivityName(session, id))
	if err != nil {
		return err
	}

	printActivity(a)
	if len(a.Artifacts) > 0 {
		for _, art := range a.Artifacts {
			if cs := art.ChangeSet; cs != nil && cs.GitPatch != nil {
				if cs.GitPatch.SuggestedCommitMessage != "" {
					fmt.Fprintf(ui.Out, "  Commit:  %s\n", cs.GitPatch.SuggestedCommitMessage)
				}
				if cs.GitPatch.UnidiffPatch != "" {
					fmt.Fprintln(ui.Out)
					fmt.Fprintln(ui.Out, cs.GitPatch.UnidiffPatch)
				}
			}
		}
	}
	return nil
}

// printActivity renders one activity as a single labeled line, with plan
// steps indented beneath plan activities.
func printActivity(a *models.Activity) {
	switch {
	case a.AgentMessaged != nil:
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("[agent]"), a.AgentMessaged.Message)
	case a.UserMessaged != nil:
		fmt.Fprintf(ui.Out, "%s %s\n", output.Green("[user]"), a.UserMessaged.Message)
	case a.PlanGenerated != nil:
		fmt.Fprintf(ui.Out, "%s\n", output.Yellow("[plan]"))
		if a.PlanGenerated.Plan != nil {
			for _, step := range a.PlanGenerated.Plan.Steps {
				fmt.Fprintf(ui.Out, "  %d. %s\n", step.Index+1, step.Title)
			}
		}
	case a.PlanApproved != nil:
		fmt.Fprintf(ui.Out, "%s plan approved\n", output.Green("[plan]"))
	case a.ProgressUpdated != nil:
		title := a.ProgressUpdated.Title
		if a.ProgressUpdated.Description != "" {
			title = fmt.Sprintf("%s: %s", title, a.ProgressUpdated.Description)
		}
		fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan("[progress]"), title)
	case a.SessionCompleted != nil:
		fmt.Fprintf(ui.Out, "%s %s\n", output.Green("[done]"), a.SessionCompleted.Summary)
	case a.SessionFailed != nil:
		msg := a.SessionFailed.Title
		if a.SessionFailed.Description != "" {
			msg = fmt.Sprintf("%s: %s", msg, a.SessionFailed.Description)
		}
		fmt.Fprintf(ui.Out, "%s %s\n", output.Red("[failed]"), msg)
	default:
		desc := a.Description
		if desc == "" {
			desc = a.Name
		}
		fmt.Fprintf(ui.Out, "[activity] %s\n", desc)
	}
}
