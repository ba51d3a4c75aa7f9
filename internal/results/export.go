package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var baseColumns = []string{
	"task_id", "title", "assignee", "assignee_email", "status",
	"deadline", "submitted_at", "late", "submission_id",
}

// WriteCSV writes rows as CSV: the task columns followed by one column per
// top-level submission field, in name order, prefixed with "data.".
func WriteCSV(w io.Writer, rows []Row) error {
	fields := dataFields(rows)

	cw := csv.NewWriter(w)
	header := append([]string{}, baseColumns...)
	for _, f := range fields {
		header = append(header, "data."+f)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		var taskID, title string
		if row.Task != nil {
			taskID, title = row.Task.ID, row.Task.Title
		}
		var name, email string
		if row.Assignee != nil {
			name, email = row.Assignee.DisplayName, row.Assignee.Email
		}
		var submissionID string
		var data map[string]interface{}
		if row.Submission != nil {
			submissionID, data = row.Submission.ID, row.Submission.Data
		}

		record = append(record,
			taskID, title, name, email, string(row.Status),
			formatTime(row.Deadline), formatTime(row.SubmittedAt),
			strconv.FormatBool(row.Late), submissionID,
		)
		for _, f := range fields {
			value, err := formatValue(data[f])
			if err != nil {
				return fmt.Errorf("field %s: %w", f, err)
			}
			record = append(record, value)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func dataFields(rows []Row) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, row := range rows {
		if row.Submission == nil {
			continue
		}
		for k := range row.Submission.Data {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	sort.Strings(fields)
	return fields
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatValue(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
