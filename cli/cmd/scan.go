package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/scan"
	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/storage"
)

var scanDB string

var scanCmd = &cobra.Command{
	Use:     "scan",
	Short:   "Inspect a ledger database offline (stop the node first)",
	Example: `  courtctl scan --db ./court_db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStorage(scanDB)
		if err != nil {
			return err
		}
		defer store.Close()

		rep, err := scan.ScanChain(store)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(rep)
		}
		rows := make([][]string, 0, len(rep.Entries))
		for _, e := range rep.Entries {
			if e.Err != nil {
				rows = append(rows, []string{e.Key, "-", pterm.Red("undecodable: " + e.Err.Error()), fmt.Sprint(e.Size)})
				continue
			}
			rows = append(rows, []string{e.Key, fmt.Sprint(e.Block.Index), short(e.Block.Hash, 16), fmt.Sprint(e.Size)})
		}
		if err := renderTable([]string{"Key", "Index", "Hash", "Bytes"}, rows); err != nil {
			return err
		}
		pterm.Info.Printfln("%d records, %d decoded, %d undecodable", len(rep.Entries), rep.Decoded, rep.Undecoded)
		return reportIntegrity(rep.Integrity)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanDB, "db", "./court_db", "LevelDB directory")
}
