package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/meetfinder/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to a Google account",
		Long: `Run the OAuth authorization flow for a Google account and store the
resulting token in the user cache directory.

Visit the printed URL, grant access, and paste the authorization code
when prompted. Multiple accounts can be authorized under different
names, e.g. --account work and --account personal.

Requires the GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment
variables to identify the OAuth client.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("GOOGLE_CLIENT_ID") == "" || os.Getenv("GOOGLE_CLIENT_SECRET") == "" {
				return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
			}

			if google.HasTokenForAccount(account) {
				fmt.Printf("Account %q already has a token; continuing will replace it.\n\n", account)
			}

			fmt.Printf("Visit the URL below, grant access, and paste the authorization code:\n\n%s\n\n", google.GetAuthURL())
			fmt.Print("Authorization code: ")

			reader := bufio.NewReader(os.Stdin)
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("no authorization code provided")
			}

			ctx := context.Background()
			if err := google.SaveTokenForAccount(ctx, code, account); err != nil {
				return fmt.Errorf("failed to save token for account %s: %w", account, err)
			}

			fmt.Printf("Token saved for account %q\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Google account name to authorize (default: 'default')")
	return cmd
}
