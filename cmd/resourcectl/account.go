package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"resourcehub/internal/client"
)

var (
	accountEmail    string
	accountPassword string
	signupName      string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and print an access token",
	Long: `Sign in with email and password.

Examples:
  resourcectl login --email ada@example.com --password secret
  export RESOURCEHUB_TOKEN=$(resourcectl login -e ada@example.com -p secret)`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and print an access token",
	Args:  cobra.NoArgs,
	RunE:  runSignup,
}

func init() {
	for _, cmd := range []*cobra.Command{loginCmd, signupCmd} {
		cmd.Flags().StringVarP(&accountEmail, "email", "e", "", "account email")
		cmd.Flags().StringVarP(&accountPassword, "password", "p", "", "account password (env: RESOURCEHUB_PASSWORD)")
		_ = cmd.MarkFlagRequired("email")
	}
	signupCmd.Flags().StringVarP(&signupName, "name", "n", "", "display name")
	_ = signupCmd.MarkFlagRequired("name")
}

func password() (string, error) {
	if accountPassword != "" {
		return accountPassword, nil
	}
	if v := os.Getenv("RESOURCEHUB_PASSWORD"); v != "" {
		return v, nil
	}
	return "", errors.New("password is required (--password or RESOURCEHUB_PASSWORD)")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	s, err := getClient().Login(cmd.Context(), accountEmail, pw)
	if err != nil {
		return err
	}
	return printSession(s)
}

func runSignup(cmd *cobra.Command, _ []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	s, err := getClient().SignUp(cmd.Context(), accountEmail, pw, signupName)
	if err != nil {
		return err
	}
	return printSession(s)
}

func printSession(s *client.Session) error {
	if jsonOutput {
		return printJSON(os.Stdout, s)
	}
	_, err := fmt.Fprintln(os.Stdout, s.AccessToken)
	return err
}

