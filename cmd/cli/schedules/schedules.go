package schedules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pagepulse/pagepulse/cmd/cli/output"
	"github.com/pagepulse/pagepulse/cmd/cli/root"
)

// Init registers the schedules command group.
func Init(rootCmd *cobra.Command) {
	schedulesCmd := &cobra.Command{
		Use:   "schedules",
		Short: "Manage recurring audit schedules",
	}
	schedulesCmd.AddCommand(listCmd(), setCmd(), clearCmd(), toggleCmd())
	rootCmd.AddCommand(schedulesCmd)
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all clients with a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(root.APIURL() + "/schedules")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			var list []struct {
				ClientID  int64  `json:"client_id"`
				Name      string `json:"name"`
				URL       string `json:"url"`
				Schedule  string `json:"schedule"`
				Enabled   bool   `json:"enabled"`
				JobActive bool   `json:"job_active"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(list))
			for _, s := range list {
				rows = append(rows, []interface{}{s.ClientID, s.Name, s.Schedule, s.Enabled, s.JobActive})
			}
			output.RenderTable([]string{"Client", "Name", "Cron", "Enabled", "Job"}, rows)
			return nil
		},
	}
}

func setCmd() *cobra.Command {
	var expression string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "set <client-id>",
		Short: "Set a client's cron schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]interface{}{
				"expression": expression,
				"enabled":    !disabled,
			})
			req, _ := http.NewRequest(http.MethodPut,
				root.APIURL()+"/clients/"+args[0]+"/schedule", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			fmt.Println("Schedule saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&expression, "cron", "", `Cron expression (e.g. "*/30 * * * *")`)
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Store the schedule without starting the job")
	cmd.MarkFlagRequired("cron")
	return cmd
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <client-id>",
		Short: "Remove a client's schedule and stop its job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, _ := http.NewRequest(http.MethodDelete,
				root.APIURL()+"/clients/"+args[0]+"/schedule", nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusNoContent {
				return apiError(resp)
			}
			fmt.Println("Schedule cleared")
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <client-id>",
		Short: "Flip a schedule's enabled flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, _ := http.NewRequest(http.MethodPatch,
				root.APIURL()+"/clients/"+args[0]+"/schedule/toggle", nil)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			var out struct {
				Enabled bool `json:"enabled"`
			}
			json.NewDecoder(resp.Body).Decode(&out)
			fmt.Printf("Schedule enabled: %v\n", out.Enabled)
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
