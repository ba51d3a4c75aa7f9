package cmd

import (
	"errors"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/zfogg/formdesk/internal/cli/api"
	"github.com/zfogg/formdesk/internal/cli/output"
	"github.com/zfogg/formdesk/internal/cli/prompter"
)

var (
	taskMine     bool
	taskAssignee string
	taskForm     string
	taskStatus   string
	taskTag      string
	taskSearch   string
	taskOrdering string
	taskDueFrom  string
	taskDueTo    string
	taskLimit    int
	taskOffset   int

	assignTitle       string
	assignDescription string
	assignUsers       string
	assignDeadline    string
	assignTags        string

	recurFrequency int
	recurCount     int
	recurUnit      string
	recurTimezone  string

	answersSource string
	reviewComment string
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Assign, fill in and review form tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := requireAuth()
		if err != nil {
			return err
		}

		filter := api.TaskFilter{
			AssigneeID: taskAssignee,
			FormID:     taskForm,
			Status:     taskStatus,
			Tag:        taskTag,
			Search:     taskSearch,
			Ordering:   taskOrdering,
			Page:       api.Page{Limit: taskLimit, Offset: taskOffset},
		}
		if taskMine {
			filter.AssigneeID = creds.UserID
		}
		if filter.DueFrom, err = parseTime(taskDueFrom); err != nil {
			return err
		}
		if filter.DueTo, err = parseTime(taskDueTo); err != nil {
			return err
		}

		list, err := api.ListTasks(filter)
		if err != nil {
			return explain(err)
		}

		rows := make([][]string, 0, len(list.Tasks))
		for _, t := range list.Tasks {
			assignee := t.AssigneeID
			if t.Assignee != nil {
				assignee = t.Assignee.Username
			}
			rows = append(rows, []string{
				t.ID,
				output.Truncate(t.Title, 40),
				assignee,
				statusLabel(t.Status, t.Late),
				output.Time(&t.Deadline),
			})
		}
		if err := output.PrintTable(output.Table{
			Headers: []string{"ID", "TITLE", "ASSIGNEE", "STATUS", "DUE"},
			Rows:    rows,
			Data:    list,
		}); err != nil {
			return err
		}
		if output.GetFormat() != output.FormatJSON && list.Total > int64(len(list.Tasks)) {
			output.PrintInfo("Showing %d of %d tasks", len(list.Tasks), list.Total)
		}
		return nil
	},
}

// statusLabel colors a task status and flags late submissions.
func statusLabel(status string, late bool) string {
	label := status
	switch status {
	case "approved":
		label = color.GreenString(status)
	case "rejected", "overdue":
		label = color.RedString(status)
	case "submitted":
		label = color.CyanString(status)
	}
	if late {
		label += color.YellowString(" (late)")
	}
	return label
}

var tasksGetCmd = &cobra.Command{
	Use:   "get <task-id>",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		task, err := api.GetTask(args[0])
		if err != nil {
			return explain(err)
		}

		fields := map[string]interface{}{
			"id":        task.ID,
			"form":      task.FormTitle + " (" + task.FormID + ")",
			"status":    statusLabel(task.Status, task.Late),
			"deadline":  task.Deadline.Local().Format("2006-01-02 15:04") + " (" + output.Time(&task.Deadline) + ")",
			"submitted": output.Time(task.SubmittedAt),
			"reviewed":  output.Time(task.ReviewedAt),
		}
		if task.Description != "" {
			fields["description"] = task.Description
		}
		if len(task.Tags) > 0 {
			fields["tags"] = strings.Join(task.Tags, ", ")
		}
		if task.RecurrenceID != nil {
			fields["series"] = *task.RecurrenceID
		}
		return output.PrintRecord(task.Title, fields, task)
	},
}

func assignmentBase() (formID string, assignees, tags []string, err error) {
	assignees = splitList(assignUsers)
	if len(assignees) == 0 {
		return "", nil, nil, errors.New("--to needs at least one user id")
	}
	return taskForm, assignees, splitList(assignTags), nil
}

var tasksAssignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign a form to users, one task each",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		formID, assignees, tags, err := assignmentBase()
		if err != nil {
			return err
		}
		deadline, err := parseTime(assignDeadline)
		if err != nil {
			return err
		}
		if deadline == nil {
			return errors.New("--deadline is required")
		}

		created, err := api.CreateTasks(api.CreateTaskRequest{
			FormID:      formID,
			Title:       assignTitle,
			Description: assignDescription,
			AssigneeIDs: assignees,
			Deadline:    *deadline,
			Tags:        tags,
		})
		if err != nil {
			return explain(err)
		}
		output.PrintSuccess("Created %d task(s)", len(created))
		return nil
	},
}

var tasksRecurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Assign a form on a repeating schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		formID, assignees, tags, err := assignmentBase()
		if err != nil {
			return err
		}
		first, err := parseTime(assignDeadline)
		if err != nil {
			return err
		}
		if first == nil {
			return errors.New("--deadline is required")
		}

		resp, err := api.CreateRecurring(api.CreateRecurringRequest{
			FormID:        formID,
			Title:         assignTitle,
			Description:   assignDescription,
			AssigneeIDs:   assignees,
			Tags:          tags,
			FirstDeadline: *first,
			Frequency:     recurFrequency,
			Count:         recurCount,
			Unit:          recurUnit,
			Timezone:      recurTimezone,
		})
		if err != nil {
			return explain(err)
		}
		output.PrintSuccess("Created series %s with %d task(s)", resp.Recurrence.ID, len(resp.Tasks))
		return nil
	},
}

var tasksCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel an open task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		if _, err := api.CancelTask(args[0]); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Cancelled task %s", args[0])
		return nil
	},
}

var tasksCancelSeriesCmd = &cobra.Command{
	Use:   "cancel-series <series-id>",
	Short: "Cancel the open tasks of a recurring series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		n, err := api.CancelRecurrence(args[0])
		if err != nil {
			return explain(err)
		}
		output.PrintSuccess("Cancelled %d task(s)", n)
		return nil
	},
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		ok, err := prompter.PromptConfirm("Delete task " + args[0] + "?")
		if err != nil || !ok {
			return err
		}
		if err := api.DeleteTask(args[0]); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Deleted task %s", args[0])
		return nil
	},
}

var tasksDraftCmd = &cobra.Command{
	Use:   "draft <task-id>",
	Short: "Show the saved draft, or save one with --data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		data, err := readData(answersSource)
		if err != nil {
			return err
		}

		if data == nil {
			draft, err := api.GetDraft(args[0])
			if err != nil {
				return explain(err)
			}
			return output.PrintJSON(draft.Data)
		}

		if _, err := api.SaveDraft(args[0], data); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Draft saved")
		return nil
	},
}

var tasksSubmitCmd = &cobra.Command{
	Use:   "submit <task-id>",
	Short: "Submit answers, or the saved draft without --data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		data, err := readData(answersSource)
		if err != nil {
			return err
		}
		task, err := api.Submit(args[0], data)
		if err != nil {
			return explain(err)
		}
		if task.Late {
			output.PrintWarning("Submitted after the deadline")
		}
		output.PrintSuccess("Submitted %s", task.Title)
		return nil
	},
}

var tasksReviewCmd = &cobra.Command{
	Use:   "review <task-id> [approve|reject]",
	Short: "Approve or reject a submission",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}

		decisions := []string{"approved", "rejected"}
		var decision string
		if len(args) == 2 {
			switch strings.ToLower(args[1]) {
			case "approve", "approved":
				decision = "approved"
			case "reject", "rejected":
				decision = "rejected"
			default:
				return errors.New("decision must be approve or reject")
			}
		} else {
			idx, err := prompter.PromptSelect("Decision:", decisions)
			if err != nil {
				return err
			}
			decision = decisions[idx]
		}

		if _, err := api.ReviewTask(args[0], decision, reviewComment); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Task %s %s", args[0], decision)
		return nil
	},
}

var tasksReviewsCmd = &cobra.Command{
	Use:   "reviews <task-id>",
	Short: "Show the review history of a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		reviews, err := api.ListReviews(args[0])
		if err != nil {
			return explain(err)
		}

		rows := make([][]string, 0, len(reviews))
		for _, r := range reviews {
			rows = append(rows, []string{
				output.Time(&r.CreatedAt),
				statusLabel(r.Decision, false),
				r.ReviewerID,
				output.Truncate(r.Comment, 60),
			})
		}
		return output.PrintTable(output.Table{
			Headers: []string{"WHEN", "DECISION", "REVIEWER", "COMMENT"},
			Rows:    rows,
			Data:    reviews,
		})
	},
}

func init() {
	f := tasksListCmd.Flags()
	f.BoolVar(&taskMine, "mine", false, "Only tasks assigned to you")
	f.StringVar(&taskAssignee, "assignee", "", "Assignee user id")
	f.StringVar(&taskForm, "form", "", "Form id")
	f.StringVar(&taskStatus, "status", "", "Comma separated statuses")
	f.StringVar(&taskTag, "tag", "", "Tag")
	f.StringVar(&taskSearch, "search", "", "Search titles")
	f.StringVar(&taskOrdering, "ordering", "", "Sort field, prefix with - for descending")
	f.StringVar(&taskDueFrom, "due-from", "", "Deadline on or after")
	f.StringVar(&taskDueTo, "due-to", "", "Deadline on or before")
	f.IntVar(&taskLimit, "limit", 0, "Maximum number of tasks")
	f.IntVar(&taskOffset, "offset", 0, "Number of tasks to skip")

	for _, c := range []*cobra.Command{tasksAssignCmd, tasksRecurringCmd} {
		c.Flags().StringVar(&taskForm, "form", "", "Form id")
		c.Flags().StringVar(&assignUsers, "to", "", "Comma separated assignee user ids")
		c.Flags().StringVar(&assignTitle, "title", "", "Task title (default: the form title)")
		c.Flags().StringVar(&assignDescription, "description", "", "Instructions for the assignees")
		c.Flags().StringVar(&assignDeadline, "deadline", "", "Deadline (first deadline for a series)")
		c.Flags().StringVar(&assignTags, "tags", "", "Comma separated tags")
		_ = c.MarkFlagRequired("form")
		_ = c.MarkFlagRequired("to")
	}
	tasksRecurringCmd.Flags().IntVar(&recurFrequency, "every", 1, "Interval between deadlines, in units")
	tasksRecurringCmd.Flags().IntVar(&recurCount, "count", 4, "Number of occurrences")
	tasksRecurringCmd.Flags().StringVar(&recurUnit, "unit", "week", "day, week, month or year")
	tasksRecurringCmd.Flags().StringVar(&recurTimezone, "timezone", "", "IANA zone the schedule follows")

	tasksDraftCmd.Flags().StringVar(&answersSource, "data", "", "Answers as a JSON object, a file, or - for stdin")
	tasksSubmitCmd.Flags().StringVar(&answersSource, "data", "", "Answers as a JSON object, a file, or - for stdin")
	tasksReviewCmd.Flags().StringVar(&reviewComment, "comment", "", "Comment for the assignee")

	tasksCmd.AddCommand(
		tasksListCmd, tasksGetCmd, tasksAssignCmd, tasksRecurringCmd,
		tasksCancelCmd, tasksCancelSeriesCmd, tasksDeleteCmd,
		tasksDraftCmd, tasksSubmitCmd, tasksReviewCmd, tasksReviewsCmd,
	)
}
