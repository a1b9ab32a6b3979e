package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	loginUser     string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and save the session token",
	Example: `  courtctl login --user admin
  courtctl login --user clerk1 --password secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginPassword == "" {
			pw, err := pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password")
			if err != nil {
				return err
			}
			loginPassword = pw
		}
		res, err := client().Login(cmd.Context(), loginUser, loginPassword)
		if err != nil {
			return err
		}
		path, err := saveToken(res.Token)
		if err != nil {
			return err
		}
		if jsonOutput() {
			return printJSON(res)
		}
		pterm.Success.Printfln("Logged in as %s (%s), token valid until %s", res.User.Username, res.User.Role, res.ExpiresAt.Local().Format("2006-01-02 15:04"))
		logger.Debug("token saved", "path", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginUser, "user", "u", "admin", "Username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted when empty)")
}
