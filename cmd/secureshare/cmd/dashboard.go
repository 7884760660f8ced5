package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dath-251-thuanle/secureshare/client"
	"github.com/dath-251-thuanle/secureshare/flow"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"whoami"},
	Short:   "Show your profile and file overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}

		nav := &routeRecorder{}
		dash := flow.NewDashboardController(app.api, app.session, nav, terminalNotifier{})
		dash.Load(cmd.Context())

		if route := nav.Last(); route != nil && route.Screen == flow.ScreenLogin {
			return fmt.Errorf("session expired, run 'secureshare login'")
		}
		if msg := dash.Err(); msg != "" {
			return fmt.Errorf("%s", msg)
		}

		printProfile(dash.Profile())
		return nil
	},
}

func printProfile(p *client.UserProfile) {
	fmt.Printf("%s <%s>\n", p.User.Username, p.User.Email)
	fmt.Printf("Role: %s\n", p.User.Role)
	twoFactor := "disabled"
	if p.User.TOTPEnabled {
		twoFactor = "enabled"
	}
	fmt.Printf("Two-factor authentication: %s\n\n", twoFactor)

	fmt.Printf("Files: %d active, %d pending, %d expired, %d deleted\n\n",
		p.Summary.ActiveFiles, p.Summary.PendingFiles,
		p.Summary.ExpiredFiles, p.Summary.DeletedFiles)

	if len(p.Files) == 0 {
		fmt.Println("No files uploaded yet.")
		return
	}
	printFileTable(p.Files)
}

func printFileTable(files []client.FileSummary) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tCREATED\tSHARE TOKEN")
	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.FileName, f.Status, f.CreatedAt, f.ShareToken)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
