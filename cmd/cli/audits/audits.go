package audits

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagepulse/pagepulse/cmd/cli/output"
	"github.com/pagepulse/pagepulse/cmd/cli/root"
)

// Init registers the audits command group.
func Init(rootCmd *cobra.Command) {
	auditsCmd := &cobra.Command{
		Use:   "audits",
		Short: "Run audits and inspect results",
	}
	auditsCmd.AddCommand(runCmd(), historyCmd(), reportCmd())
	rootCmd.AddCommand(auditsCmd)
}

func runCmd() *cobra.Command {
	var formFactor string

	cmd := &cobra.Command{
		Use:   "run <client-id>",
		Short: "Trigger an audit now and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"form_factor": formFactor})
			// Audits take minutes; no client timeout here.
			resp, err := http.Post(
				root.APIURL()+"/clients/"+args[0]+"/audit",
				"application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			var res struct {
				AuditID int64 `json:"audit_id"`
				Scores  struct {
					Performance   int `json:"performance"`
					Accessibility int `json:"accessibility"`
					BestPractices int `json:"best_practices"`
					SEO           int `json:"seo"`
					PWA           int `json:"pwa"`
				} `json:"scores"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
				return err
			}
			output.RenderTable(
				[]string{"Audit", "Perf", "A11y", "Best practices", "SEO", "PWA"},
				[][]interface{}{{res.AuditID, res.Scores.Performance, res.Scores.Accessibility,
					res.Scores.BestPractices, res.Scores.SEO, res.Scores.PWA}})
			return nil
		},
	}
	cmd.Flags().StringVar(&formFactor, "form-factor", "mobile", "Form factor (mobile or desktop)")
	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <client-id>",
		Short: "Show a client's recent audit runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(root.APIURL() + "/clients/" + args[0] + "/audits")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			var list []struct {
				ID          int64     `json:"id"`
				FormFactor  string    `json:"form_factor"`
				Performance *int      `json:"performance"`
				Status      string    `json:"status"`
				Error       *string   `json:"error"`
				CreatedAt   time.Time `json:"created_at"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(list))
			for _, a := range list {
				perf := "-"
				if a.Performance != nil {
					perf = fmt.Sprintf("%d", *a.Performance)
				}
				detail := ""
				if a.Error != nil {
					detail = *a.Error
				}
				rows = append(rows, []interface{}{
					a.ID, a.FormFactor, perf, a.Status, detail, a.CreatedAt.Local().Format(time.RFC3339)})
			}
			output.RenderTable([]string{"ID", "Form factor", "Perf", "Status", "Error", "When"}, rows)
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <audit-id>",
		Short: "Print the full report document of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(root.APIURL() + "/audits/" + args[0] + "/report")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			var doc any
			if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
				return err
			}
			pretty, _ := json.MarshalIndent(doc, "", "  ")
			fmt.Println(string(pretty))
			return nil
		},
	}
}

func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s (%d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
