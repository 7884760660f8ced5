package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dath-251-thuanle/secureshare/flow"
)

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Manage two-factor authentication",
}

var totpSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Enable TOTP two-factor authentication",
	Long: `Request a TOTP secret, add it to an authenticator app, then confirm
with a generated code. Two-factor authentication is enabled only after the
code verifies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		if !app.session.LoggedIn() {
			return fmt.Errorf("not logged in, run 'secureshare login'")
		}

		setup, err := app.api.SetupTOTP(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Secret:      %s\n", setup.Secret)
		fmt.Printf("Otpauth URL: %s\n\n", setup.OtpauthURL)
		fmt.Println("Add the secret to your authenticator app, then enter a code to confirm.")

		code, err := prompt("TOTP code")
		if err != nil {
			return err
		}
		if err := app.api.VerifyTOTP(cmd.Context(), code); err != nil {
			return err
		}
		if u := app.session.CurrentUser(); u != nil {
			u.TOTPEnabled = true
			app.session.SetCurrentUser(u)
		}
		fmt.Println("✓ Two-factor authentication enabled.")
		return nil
	},
}

var totpDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable TOTP two-factor authentication",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		if !app.session.LoggedIn() {
			return fmt.Errorf("not logged in, run 'secureshare login'")
		}

		code, err := prompt("TOTP code")
		if err != nil {
			return err
		}

		nav := &routeRecorder{}
		dash := flow.NewDashboardController(app.api, app.session, nav, terminalNotifier{})
		dash.DisableTwoFactor(cmd.Context(), code)
		if route := nav.Last(); route != nil && route.Screen == flow.ScreenLogin {
			return fmt.Errorf("session expired, run 'secureshare login'")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(totpCmd)
	totpCmd.AddCommand(totpSetupCmd)
	totpCmd.AddCommand(totpDisableCmd)
}
