package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/zfogg/formdesk/internal/cli/api"
	"github.com/zfogg/formdesk/internal/cli/output"
	"github.com/zfogg/formdesk/internal/cli/prompter"
)

var (
	formTag    string
	formLimit  int
	formOffset int
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "Browse and manage form definitions",
}

var formsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List forms",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		list, err := api.ListForms(formTag, api.Page{Limit: formLimit, Offset: formOffset})
		if err != nil {
			return explain(err)
		}

		rows := make([][]string, 0, len(list.Forms))
		for _, f := range list.Forms {
			rows = append(rows, []string{
				f.ID,
				output.Truncate(f.Title, 40),
				f.Path,
				strings.Join(f.Tags, ","),
				strconv.Itoa(len(f.Components)),
			})
		}
		return output.PrintTable(output.Table{
			Headers: []string{"ID", "TITLE", "PATH", "TAGS", "FIELDS"},
			Rows:    rows,
			Data:    list,
		})
	},
}

var formsGetCmd = &cobra.Command{
	Use:   "get <form-id>",
	Short: "Show a form and its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		form, err := api.GetForm(args[0])
		if err != nil {
			return explain(err)
		}

		keys := make([]string, 0, len(form.Components))
		for _, c := range form.Components {
			if key, ok := c["key"].(string); ok {
				keys = append(keys, key)
			}
		}
		return output.PrintRecord(form.Title, map[string]interface{}{
			"id":       form.ID,
			"path":     form.Path,
			"tags":     strings.Join(form.Tags, ", "),
			"fields":   strings.Join(keys, ", "),
			"modified": output.Time(form.Modified),
		}, form)
	},
}

// readFormFile loads a form definition written as JSON.
func readFormFile(path string) (api.FormRequest, error) {
	var req api.FormRequest
	raw, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("parsing %s: %w", path, err)
	}
	return req, nil
}

var formsCreateCmd = &cobra.Command{
	Use:   "create <definition.json>",
	Short: "Create a form from a JSON definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		req, err := readFormFile(args[0])
		if err != nil {
			return err
		}
		form, err := api.CreateForm(req)
		if err != nil {
			return explain(err)
		}
		output.PrintSuccess("Created form %s (%s)", form.Title, form.ID)
		return nil
	},
}

var formsUpdateCmd = &cobra.Command{
	Use:   "update <form-id> <definition.json>",
	Short: "Replace a form definition",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		req, err := readFormFile(args[1])
		if err != nil {
			return err
		}
		form, err := api.UpdateForm(args[0], req)
		if err != nil {
			return explain(err)
		}
		output.PrintSuccess("Updated form %s", form.Title)
		return nil
	},
}

var formsDeleteCmd = &cobra.Command{
	Use:   "delete <form-id>",
	Short: "Delete a form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		ok, err := prompter.PromptConfirm("Delete form " + args[0] + "?")
		if err != nil || !ok {
			return err
		}
		if err := api.DeleteForm(args[0]); err != nil {
			return explain(err)
		}
		output.PrintSuccess("Deleted form %s", args[0])
		return nil
	},
}

func init() {
	formsListCmd.Flags().StringVar(&formTag, "tag", "", "Only forms with this tag")
	formsListCmd.Flags().IntVar(&formLimit, "limit", 0, "Maximum number of forms")
	formsListCmd.Flags().IntVar(&formOffset, "offset", 0, "Number of forms to skip")

	formsCmd.AddCommand(formsListCmd, formsGetCmd, formsCreateCmd, formsUpdateCmd, formsDeleteCmd)
}
