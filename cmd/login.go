package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the chat surface interactively and persist the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Login is operator-driven; the window must be visible.
		cfg.Browser.Headless = false

		surf, _, err := initSurface(ctx)
		if err != nil {
			return err
		}
		defer surf.Close()

		if err := surf.Navigate(ctx, cfg.Chat.URL); err != nil {
			return eris.Wrap(err, "open chat surface")
		}

		fmt.Println("Complete the login in the browser window, then press Enter to save the session.")
		if _, err := bufio.NewReader(os.Stdin).ReadString('\n'); err != nil {
			return eris.Wrap(err, "await confirmation")
		}

		if err := surf.PersistSessionToken(ctx); err != nil {
			return eris.Wrap(err, "persist session token")
		}

		zap.L().Info("session token saved", zap.String("path", cfg.Browser.SessionPath))
		fmt.Println("Session saved.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
