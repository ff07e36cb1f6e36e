package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"resourcehub/internal/client"
)

// defaultServer matches the server's defaults: PORT 8080, no API_BASE_PATH.
const defaultServer = "http://localhost:8080"

var (
	version = "dev"

	server     string
	token      string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:     "resourcectl",
	Version: version,
	Short:   "Client for the resource hub API",
	Long: `resourcectl talks to a resource hub server.

Sign in with "resourcectl login" and export the printed token as
RESOURCEHUB_TOKEN, or pass it with --token on every call.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", "", "server URL including API_BASE_PATH if set (default: http://localhost:8080, env: RESOURCEHUB_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "access token (env: RESOURCEHUB_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tagsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func serverURL() string {
	if server != "" {
		return server
	}
	if v := os.Getenv("RESOURCEHUB_SERVER"); v != "" {
		return v
	}
	return defaultServer
}

// getClient returns a client carrying the token from flags or env, if any.
func getClient() *client.Client {
	tok := token
	if tok == "" {
		tok = strings.TrimSpace(os.Getenv("RESOURCEHUB_TOKEN"))
	}
	var opts []client.Option
	if tok != "" {
		opts = append(opts, client.WithSession(&client.Session{AccessToken: tok}))
	}
	return client.New(serverURL(), opts...)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
