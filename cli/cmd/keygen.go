package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/JonathanAlbertoBarrera/casosLegales-Blockchain/core/signer"
)

var keygenDir string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a node signing key",
	Long: `Generate an ed25519 node signing key.

With --dir the keypair files are written where courtd looks for them.
Without it the seed is printed for use as ` + signer.KeyEnvVar + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if keygenDir != "" {
			k, created, err := signer.LoadOrGenerate(keygenDir)
			if err != nil {
				return err
			}
			if !created {
				pterm.Warning.Printfln("Key already present in %s, left untouched", keygenDir)
			}
			pterm.Info.Printfln("Public key: %s", k.PublicHex())
			return nil
		}
		k, err := signer.Generate()
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(map[string]string{"public_key": k.PublicHex(), "seed": k.SeedHex()})
		}
		fmt.Printf("%s=%s\n", signer.KeyEnvVar, k.SeedHex())
		pterm.Info.Printfln("Public key: %s", k.PublicHex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&keygenDir, "dir", "", "Write the keypair files into this directory")
}
