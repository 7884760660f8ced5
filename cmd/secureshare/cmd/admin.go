package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dath-251-thuanle/secureshare/client"
	"github.com/dath-251-thuanle/secureshare/flow"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administer the SecureShare system policy",
}

var adminPolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show the current system policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		policy := flow.NewPolicyController(app.api, terminalNotifier{})
		if err := policy.Load(cmd.Context()); err != nil {
			return err
		}
		printPolicy(policy.Form())
		return nil
	},
}

var (
	policyMaxSize        int
	policyMinValidity    int
	policyMaxValidity    int
	policyDefaultDays    int
	policyPasswordLength int
)

var adminPolicySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the system policy",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		policy := flow.NewPolicyController(app.api, terminalNotifier{})
		if err := policy.Load(cmd.Context()); err != nil {
			return err
		}

		form := policy.Form()
		if cmd.Flags().Changed("max-file-size") {
			form.MaxFileSizeMB = policyMaxSize
		}
		if cmd.Flags().Changed("min-validity-hours") {
			form.MinValidityHours = policyMinValidity
		}
		if cmd.Flags().Changed("max-validity-days") {
			form.MaxValidityDays = policyMaxValidity
		}
		if cmd.Flags().Changed("default-validity-days") {
			form.DefaultValidityDays = policyDefaultDays
		}
		if cmd.Flags().Changed("password-min-length") {
			form.RequirePasswordMinLength = policyPasswordLength
		}

		policy.Save(cmd.Context())
		printPolicy(policy.Form())
		return nil
	},
}

var adminCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired files now",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newAppContext()
		if err != nil {
			return err
		}
		cleanup := flow.NewCleanupController(app.api, terminalNotifier{})
		cleanup.Run(cmd.Context())
		return nil
	},
}

func printPolicy(p *client.SystemPolicy) {
	fmt.Printf("Max file size:         %d MB\n", p.MaxFileSizeMB)
	fmt.Printf("Min validity:          %d hours\n", p.MinValidityHours)
	fmt.Printf("Max validity:          %d days\n", p.MaxValidityDays)
	fmt.Printf("Default validity:      %d days\n", p.DefaultValidityDays)
	fmt.Printf("Password min length:   %d\n", p.RequirePasswordMinLength)
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminPolicyCmd, adminCleanupCmd)
	adminPolicyCmd.AddCommand(adminPolicySetCmd)

	adminPolicySetCmd.Flags().IntVar(&policyMaxSize, "max-file-size", 0, "Maximum upload size in MB")
	adminPolicySetCmd.Flags().IntVar(&policyMinValidity, "min-validity-hours", 0, "Minimum sharing window in hours")
	adminPolicySetCmd.Flags().IntVar(&policyMaxValidity, "max-validity-days", 0, "Maximum sharing window in days")
	adminPolicySetCmd.Flags().IntVar(&policyDefaultDays, "default-validity-days", 0, "Default sharing window in days")
	adminPolicySetCmd.Flags().IntVar(&policyPasswordLength, "password-min-length", 0, "Minimum file password length")
}
