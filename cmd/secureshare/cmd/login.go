package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dath-251-thuanle/secureshare/flow"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	Long: `Log in to SecureShare. Accounts with two-factor authentication enabled
are asked for a 6-digit TOTP code as a second step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		email := loginEmail
		if email == "" {
			if email, err = prompt("Email"); err != nil {
				return err
			}
		}
		password, err := promptPassword("Password")
		if err != nil {
			return err
		}

		nav := &routeRecorder{}
		notify := terminalNotifier{}
		login := flow.NewLoginController(app.api, app.session, nav, notify)
		login.Submit(cmd.Context(), email, password)

		route := nav.Last()
		if route == nil {
			// Failed login: the controller already notified, the user may
			// simply rerun the command.
			return fmt.Errorf("login failed")
		}
		if route.Screen == flow.ScreenTOTP {
			return runTOTPChallenge(cmd, app, route.Email)
		}
		return nil
	},
}

// runTOTPChallenge drives the second-factor screen: validate the outstanding
// challenge, then collect codes until one verifies or the user gives up.
func runTOTPChallenge(cmd *cobra.Command, app *appContext, email string) error {
	nav := &routeRecorder{}
	notify := terminalNotifier{}
	totp := flow.NewTOTPController(app.api, app.session, nav, notify)

	if !totp.Mount(email) {
		return fmt.Errorf("no login challenge outstanding")
	}
	fmt.Printf("Two-factor authentication required for %s.\n", totp.Email())

	for totp.State() == flow.TOTPAwaitingCode {
		code, err := prompt("TOTP code (empty to abort)")
		if err != nil {
			return err
		}
		if code == "" {
			return fmt.Errorf("login aborted")
		}
		if !totp.CanSubmit(code) {
			errorf("the code must be exactly %d digits", flow.TOTPCodeLength)
			continue
		}
		totp.Submit(cmd.Context(), code)
	}
	if route := nav.Last(); route == nil || route.Screen != flow.ScreenDashboard {
		return fmt.Errorf("login failed")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
}
