package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/zfogg/formdesk/internal/cli/api"
	"github.com/zfogg/formdesk/internal/cli/config"
	"github.com/zfogg/formdesk/internal/cli/output"
)

var (
	resultsStatus        string
	resultsAssignee      string
	resultsTag           string
	resultsSearch        string
	resultsSort          string
	resultsLate          bool
	resultsOrphans       bool
	resultsSubmittedFrom string
	resultsSubmittedTo   string
	resultsPage          int
	resultsPageSize      int

	exportWait     bool
	exportDownload bool
	exportTimeout  time.Duration
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect and export form results",
}

func resultsQuery() (api.ResultsQuery, error) {
	q := api.ResultsQuery{
		Status:         resultsStatus,
		AssigneeID:     resultsAssignee,
		Tag:            resultsTag,
		Search:         resultsSearch,
		Sort:           resultsSort,
		LateOnly:       resultsLate,
		IncludeOrphans: resultsOrphans,
		Page:           resultsPage,
		PageSize:       resultsPageSize,
	}
	var err error
	if q.SubmittedFrom, err = parseTime(resultsSubmittedFrom); err != nil {
		return q, err
	}
	if q.SubmittedTo, err = parseTime(resultsSubmittedTo); err != nil {
		return q, err
	}
	return q, nil
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <form-id>",
	Short: "Show submissions joined with their tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		q, err := resultsQuery()
		if err != nil {
			return err
		}
		page, err := api.GetResults(args[0], q)
		if err != nil {
			return explain(err)
		}

		rows := make([][]string, 0, len(page.Rows))
		for _, r := range page.Rows {
			who := "-"
			if r.Assignee != nil {
				who = r.Assignee.DisplayName
			}
			submission := "-"
			if r.Submission != nil {
				submission = r.Submission.ID
			}
			rows = append(rows, []string{
				who,
				statusLabel(r.Status, r.Late),
				output.Time(r.Deadline),
				output.Time(r.SubmittedAt),
				submission,
			})
		}
		if err := output.PrintTable(output.Table{
			Headers: []string{"ASSIGNEE", "STATUS", "DUE", "SUBMITTED", "SUBMISSION"},
			Rows:    rows,
			Data:    page,
		}); err != nil {
			return err
		}
		if output.GetFormat() == output.FormatJSON {
			return nil
		}

		output.PrintInfo("Page %d, %d of %d rows", page.Page, len(page.Rows), page.Total)
		if page.Truncated {
			output.PrintWarning("The form has more submissions than the server loads; totals are incomplete")
		}
		statuses := make([]string, 0, len(page.Summary))
		for s := range page.Summary {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		summary := make(map[string]interface{}, len(statuses))
		for _, s := range statuses {
			summary[s] = strconv.Itoa(page.Summary[s])
		}
		return output.PrintRecord("Summary", summary, nil)
	},
}

var resultsExportCmd = &cobra.Command{
	Use:   "export <form-id>",
	Short: "Export the filtered results as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		q, err := resultsQuery()
		if err != nil {
			return err
		}

		job, err := api.ExportResults(args[0], q)
		if err != nil {
			return explain(err)
		}
		if !exportWait && !exportDownload {
			output.PrintSuccess("Export queued: %s", job.ID)
			output.PrintInfo("Check it with: formdesk results export-status %s", job.ID)
			return nil
		}

		output.PrintInfo("Export queued, waiting...")
		job, err = api.WaitForExport(job.ID, time.Second, exportTimeout)
		if err != nil {
			return explain(err)
		}
		return reportExport(job)
	},
}

var resultsExportStatusCmd = &cobra.Command{
	Use:   "export-status <job-id>",
	Short: "Show the state of an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		job, err := api.GetExport(args[0])
		if err != nil {
			return explain(err)
		}
		return reportExport(job)
	},
}

func reportExport(job *api.ExportJob) error {
	switch {
	case job.Status == "failed":
		msg := "unknown error"
		if job.ErrorMessage != nil {
			msg = *job.ErrorMessage
		}
		return fmt.Errorf("export %s failed: %s", job.ID, msg)
	case !job.Done() || job.Result == nil:
		output.PrintWarning("Export %s is still %s", job.ID, job.Status)
		return nil
	}

	if exportDownload {
		path, err := download(job)
		if err != nil {
			return err
		}
		output.PrintSuccess("Saved %d rows to %s", job.Result.Rows, path)
		if job.Result.Truncated {
			output.PrintWarning("The export stops at the server's submission limit")
		}
		return nil
	}

	return output.PrintRecord("Export "+job.ID, map[string]interface{}{
		"rows":      job.Result.Rows,
		"size":      output.Bytes(job.Result.Size),
		"url":       job.Result.URL,
		"expires":   output.Time(&job.Result.ExpiresAt),
		"truncated": job.Result.Truncated,
	}, job)
}

// download saves the export to output.download_dir. The URL is presigned,
// so no credentials are sent.
func download(job *api.ExportJob) (string, error) {
	dir := config.GetString("output.download_dir")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(job.Result.Key))

	resp, err := resty.New().
		SetTimeout(exportTimeout).
		R().
		SetOutput(path).
		Get(job.Result.URL)
	if err != nil {
		return "", err
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("download failed: %s", resp.Status())
	}
	return path, nil
}

func init() {
	for _, c := range []*cobra.Command{resultsShowCmd, resultsExportCmd} {
		f := c.Flags()
		f.StringVar(&resultsStatus, "status", "", "Comma separated statuses, orphan included")
		f.StringVar(&resultsAssignee, "assignee", "", "Assignee user id")
		f.StringVar(&resultsTag, "tag", "", "Task tag")
		f.StringVar(&resultsSearch, "search", "", "Search assignee names and answers")
		f.StringVar(&resultsSort, "sort", "", "Sort field, prefix with - for descending")
		f.BoolVar(&resultsLate, "late", false, "Only late submissions")
		f.BoolVar(&resultsOrphans, "orphans", false, "Include submissions without a task")
		f.StringVar(&resultsSubmittedFrom, "submitted-from", "", "Submitted on or after")
		f.StringVar(&resultsSubmittedTo, "submitted-to", "", "Submitted on or before")
	}
	resultsShowCmd.Flags().IntVar(&resultsPage, "page", 1, "Page number")
	resultsShowCmd.Flags().IntVar(&resultsPageSize, "page-size", 0, "Rows per page")

	resultsExportCmd.Flags().BoolVar(&exportWait, "wait", false, "Wait for the export to finish")
	resultsExportCmd.Flags().BoolVar(&exportDownload, "download", false, "Wait, then download the CSV")
	resultsExportCmd.Flags().DurationVar(&exportTimeout, "timeout", 2*time.Minute, "How long to wait")
	resultsExportStatusCmd.Flags().BoolVar(&exportDownload, "download", false, "Download the CSV when ready")

	resultsCmd.AddCommand(resultsShowCmd, resultsExportCmd, resultsExportStatusCmd)
}
