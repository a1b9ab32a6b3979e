package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/court"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/integrity"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print every block on the ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		blocks, err := client().Chain(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(blocks)
		}
		rows := make([][]string, 0, len(blocks))
		for _, b := range blocks {
			action, caseID := "", ""
			if len(b.Transactions) > 0 {
				action, caseID = string(b.Transactions[0].Action), b.Transactions[0].CaseID
			}
			rows = append(rows, []string{
				fmt.Sprint(b.Index), short(b.Hash, 16), short(b.PreviousHash, 16),
				fmt.Sprint(b.Nonce), action, caseID,
			})
		}
		return renderTable([]string{"Index", "Hash", "Previous", "Nonce", "Action", "Case"}, rows)
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Ask the node to re-verify the whole chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client().Verify(cmd.Context())
		if err != nil {
			return err
		}
		return reportIntegrity(res)
	},
}

func reportIntegrity(res integrity.Result) error {
	if jsonOutput() {
		return printJSON(res)
	}
	if res.Valid {
		pterm.Success.Printfln("Chain valid: %d blocks at difficulty %d", res.Length, res.Difficulty)
		return nil
	}
	if res.FirstInvalidIndex != nil {
		pterm.Error.Printfln("Chain INVALID at block %d: %s", *res.FirstInvalidIndex, res.Reason)
	} else {
		pterm.Error.Printfln("Chain INVALID: %s", res.Reason)
	}
	return fmt.Errorf("verification failed")
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"statistics"},
	Short:   "Ledger statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := client().Statistics(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(st)
		}
		rows := [][]string{
			{"Total cases", fmt.Sprint(st.TotalCases)},
			{"Unique cases on chain", fmt.Sprint(st.UniqueCases)},
			{"Blocks", fmt.Sprint(st.TotalBlocks)},
			{"Transactions", fmt.Sprint(st.TotalTransactions)},
			{"Pending", fmt.Sprint(st.PendingTransactions)},
			{"Difficulty", fmt.Sprint(st.Difficulty)},
			{"Judges", fmt.Sprint(st.TotalJudges)},
		}
		for status, n := range st.CasesByStatus {
			rows = append(rows, []string{"Status " + status, fmt.Sprint(n)})
		}
		for t, n := range st.CaseTypes {
			rows = append(rows, []string{"Type " + t, fmt.Sprint(n)})
		}
		return renderTable([]string{"Metric", "Value"}, rows)
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show queued and recently rejected submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := client().Pending(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(p)
		}
		pterm.Info.Printfln("%d queued, %d rejected", len(p.Pending), len(p.Rejected))
		if len(p.Rejected) == 0 {
			return nil
		}
		rows := make([][]string, 0, len(p.Rejected))
		for _, r := range p.Rejected {
			rows = append(rows, []string{r.Tx.CaseID, string(r.Tx.Action), r.Reason, r.LastError})
		}
		return renderTable([]string{"Case", "Action", "Reason", "Error"}, rows)
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download a signed export of the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := client().Export(cmd.Context())
		if err != nil {
			return err
		}
		if exportOut == "" {
			return printJSON(exp)
		}
		b, err := json.MarshalIndent(exp, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(exportOut, b, 0o644); err != nil {
			return err
		}
		pterm.Success.Printfln("Wrote %d blocks to %s (root %s, signed by %s)", exp.Length, exportOut, short(exp.ChainRoot, 16), short(exp.PublicKey, 16))
		return nil
	},
}

var trustedKey string

var verifyExportCmd = &cobra.Command{
	Use:   "verify-export <file>",
	Short: "Verify a signed export offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var exp court.Export
		if err := json.Unmarshal(b, &exp); err != nil {
			return fmt.Errorf("decode export: %w", err)
		}
		res, err := court.VerifyExport(exp, trustedKey)
		if err != nil {
			pterm.Error.Printfln("Export rejected: %v", err)
			return err
		}
		logger.Debug("export signature ok", "public_key", exp.PublicKey, "chain_root", exp.ChainRoot)
		return reportIntegrity(res)
	},
}

func init() {
	rootCmd.AddCommand(chainCmd, verifyCmd, statsCmd, pendingCmd, exportCmd, verifyExportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "f", "", "Write the export to this file instead of stdout")
	verifyExportCmd.Flags().StringVar(&trustedKey, "trusted-key", "", "Hex public key the export must be signed with")
}
