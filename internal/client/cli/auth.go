package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/taskjournal/internal/client/client"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/spf13/cobra"
)

func (r *rootCommand) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account on the server",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.run((*App).Register),
	}
}

func (r *rootCommand) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and remember the session",
		Args:  cobra.MaximumNArgs(1),
		RunE:  r.run((*App).Login),
	}
}

func (r *rootCommand) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE:  r.run((*App).Logout),
	}
}

// Register creates an account. The password is wiped before returning.
func (a *App) Register(ctx context.Context, args []string) error {
	username, err := a.username(args)
	if err != nil {
		return err
	}

	password, err := a.password()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.authService.Register(ctx, username, password); err != nil {
		return err
	}

	a.printf("Registered %s\n", username)
	return nil
}

// Login authenticates online and saves the session. When the server is
// unreachable the password is still checked against the saved verifier so
// local commands can be trusted.
func (a *App) Login(ctx context.Context, args []string) error {
	username, err := a.username(args)
	if err != nil {
		return err
	}

	password, err := a.password()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	masterKey, err := a.authService.OnlineLogin(ctx, username, password)
	if errors.Is(err, client.ErrUnavailable) {
		a.logger.Warn(ctx, "server unavailable, trying offline login", "error", err)
		masterKey, err = a.authService.OfflineLogin(ctx, username, password)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(masterKey)
		a.printf("Server unavailable, offline credentials verified for %s\n", username)
		return nil
	}
	if err != nil {
		return err
	}
	defer common.WipeByteArray(masterKey)

	a.logger.Info(ctx, "login successful", "username", username)
	a.printf("Logged in as %s\n", username)
	return nil
}

// Logout clears the locally cached session.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.authService.ClearOfflineData(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}
