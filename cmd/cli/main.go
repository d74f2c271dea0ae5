package main

import (
	"fmt"
	"os"

	"github.com/pagepulse/pagepulse/cmd/cli/audits"
	"github.com/pagepulse/pagepulse/cmd/cli/clients"
	"github.com/pagepulse/pagepulse/cmd/cli/dashboard"
	"github.com/pagepulse/pagepulse/cmd/cli/root"
	"github.com/pagepulse/pagepulse/cmd/cli/schedules"
)

func main() {
	clients.Init(root.RootCmd)
	audits.Init(root.RootCmd)
	schedules.Init(root.RootCmd)
	dashboard.Init(root.RootCmd)

	if err := root.RootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
