package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var judgesCmd = &cobra.Command{
	Use:   "judges",
	Short: "List registered judges",
	RunE: func(cmd *cobra.Command, args []string) error {
		judges, err := client().Judges(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(judges)
		}
		rows := make([][]string, 0, len(judges))
		for _, j := range judges {
			rows = append(rows, []string{j.JudgeID, j.Name, j.Specialty, j.RegisteredAt.Local().Format("2006-01-02")})
		}
		return renderTable([]string{"ID", "Name", "Specialty", "Registered"}, rows)
	},
}

var judgeName, judgeSpecialty string

var judgesRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a judge (admin only)",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := client().RegisterJudge(cmd.Context(), judgeName, judgeSpecialty)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(j)
		}
		pterm.Success.Printfln("Judge %s registered as %s", j.Name, j.JudgeID)
		return nil
	},
}

func init() {
	judgesCmd.AddCommand(judgesRegisterCmd)
	rootCmd.AddCommand(judgesCmd)
	judgesRegisterCmd.Flags().StringVar(&judgeName, "name", "", "Judge full name (required)")
	judgesRegisterCmd.Flags().StringVar(&judgeSpecialty, "specialty", "", "Specialty (required)")
	_ = judgesRegisterCmd.MarkFlagRequired("name")
	_ = judgesRegisterCmd.MarkFlagRequired("specialty")
}
