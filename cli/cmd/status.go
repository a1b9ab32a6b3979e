package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query node status and health",
	Example: `  courtctl status
  courtctl status --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client().Status(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(st)
		}
		body := fmt.Sprintf("Status:  %s\nHeight:  %d\nPending: %d\nUptime:  %ds\nVersion: %s (API %s)\nLast block: %s",
			st.Status, st.BlockHeight, st.Pending, st.Uptime, st.Version, st.APIVersion, st.LastBlock)
		if st.Corruption != nil {
			body += fmt.Sprintf("\n\nCORRUPTED at block %d: %s", st.Corruption.Index, st.Corruption.Reason)
		}
		pterm.DefaultBox.WithTitle("Node").Println(body)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query node health summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := client().Health(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(h)
		}
		pterm.Info.Printfln("Node health: %s, %d blocks, difficulty %d", h.Status, h.Blocks, h.Difficulty)
		return nil
	},
}

var readinessCmd = &cobra.Command{
	Use:   "readiness",
	Short: "Check node readiness",
	RunE: func(cmd *cobra.Command, args []string) error {
		ready, err := client().Readiness(cmd.Context())
		if err != nil {
			return err
		}
		if ready {
			pterm.Success.Println("Node is ready")
		} else {
			pterm.Warning.Println("Node is not ready")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, healthCmd, readinessCmd)
}
