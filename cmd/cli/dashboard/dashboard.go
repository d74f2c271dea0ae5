package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagepulse/pagepulse/cmd/cli/output"
	"github.com/pagepulse/pagepulse/cmd/cli/root"
)

// Init registers the dashboard command.
func Init(rootCmd *cobra.Command) {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Show every client with its most recent audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get(root.APIURL() + "/dashboard")
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}
			var rows []struct {
				ID        int64  `json:"id"`
				Name      string `json:"name"`
				URL       string `json:"url"`
				Platform  string `json:"platform"`
				LastAudit *struct {
					Performance *int      `json:"performance"`
					Status      string    `json:"status"`
					CreatedAt   time.Time `json:"created_at"`
				} `json:"last_audit"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
				return err
			}

			out := make([][]interface{}, 0, len(rows))
			for _, r := range rows {
				perf, status, when := "-", "-", "-"
				if r.LastAudit != nil {
					status = r.LastAudit.Status
					when = r.LastAudit.CreatedAt.Local().Format(time.RFC3339)
					if r.LastAudit.Performance != nil {
						perf = fmt.Sprintf("%d", *r.LastAudit.Performance)
					}
				}
				out = append(out, []interface{}{r.ID, r.Name, r.URL, r.Platform, perf, status, when})
			}
			output.RenderTable([]string{"ID", "Name", "URL", "Platform", "Perf", "Status", "Last run"}, out)
			return nil
		},
	})
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
