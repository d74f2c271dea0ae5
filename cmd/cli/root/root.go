package root

import (
	"os"

	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:8080"

// RootCmd is the top-level pagepulse command.
var RootCmd = &cobra.Command{
	Use:   "pagepulse",
	Short: "PagePulse CLI",
	Long:  "Command line interface for the PagePulse audit scheduler API",
}

// APIURL returns the base URL of the API.
// Override with the PAGEPULSE_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("PAGEPULSE_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}
