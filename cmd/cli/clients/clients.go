package clients

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

// Init registers the clients command group.
func Init(rootCmd *cobra.Command) {
	clientsCmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage registered clients",
	}
	clientsCmd.AddCommand(listCmd(), addCmd(), deleteCmd())
	rootCmd.AddCommand(clientsCmd)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List clients with their latest audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(root.APIURL() + "/clients")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var list []struct {
				ID              int64      `json:"id"`
				Name            string     `json:"name"`
				URL             string     `json:"url"`
				Platform        string     `json:"platform"`
				LastAuditAt     *time.Time `json:"last_audit_at"`
				LastPerformance *int       `json:"last_performance"`
				JobActive       bool       `json:"job_active"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(list))
			for _, c := range list {
				lastRun := "-"
				if c.LastAuditAt != nil {
					lastRun = c.LastAuditAt.Local().Format(time.RFC3339)
				}
				perf := "-"
				if c.LastPerformance != nil {
					perf = fmt.Sprintf("%d", *c.LastPerformance)
				}
				rows = append(rows, []interface{}{c.ID, c.Name, c.URL, c.Platform, perf, lastRun, c.JobActive})
			}
			output.RenderTable([]string{"ID", "Name", "URL", "Platform", "Perf", "Last run", "Job"}, rows)
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var name, url, platform string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a client",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{
				"name":     name,
				"url":      url,
				"platform": platform,
			})
			resp, err := http.Post(root.APIURL()+"/clients", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				return apiError(resp)
			}
			var c struct {
				ID int64 `json:"id"`
			}
			json.NewDecoder(resp.Body).Decode(&c)
			fmt.Printf("Client %d created\n", c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&url, "url", "", "Target URL")
	cmd.Flags().StringVar(&platform, "platform", "both", "Platform preference (mobile, desktop, both)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("url")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client and its audit history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, _ := http.NewRequest(http.MethodDelete, root.APIURL()+"/clients/"+args[0], nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				return apiError(resp)
			}
			fmt.Println("Client deleted")
			return nil
		},
	}
}

// apiError extracts the API's error message from a non-success response.
func apiError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("%s (%d)", body.Error, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
