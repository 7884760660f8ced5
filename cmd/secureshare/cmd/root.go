package cmd

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/dath-251-thuanle/secureshare/client"
	"github.com/dath-251-thuanle/secureshare/config"
	"github.com/dath-251-thuanle/secureshare/session"
)

var (
	apiURL      string
	sessionFile string
)

var rootCmd = &cobra.Command{
	Use:   "secureshare",
	Short: "SecureShare is a file-sharing client",
	Long: `Share files with optional password protection and time-windowed
availability, protected by password + TOTP two-factor login.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errorf("%s", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (overrides env and config file)")
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "Path to the session file")
}

// appContext bundles the pieces every command needs.
type appContext struct {
	cfg     *config.Config
	session *session.Session
	api     *client.Client
}

func newAppContext() (*appContext, error) {
	cfg, err := config.Load(apiURL)
	if err != nil {
		return nil, err
	}
	path := cfg.SessionFile
	if sessionFile != "" {
		path = sessionFile
	}
	sess := session.New(session.NewFileStore(path))
	api := client.New(cfg.APIBaseURL,
		client.WithTokenSource(sess),
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	return &appContext{cfg: cfg, session: sess, api: api}, nil
}
