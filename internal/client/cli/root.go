package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/taskjournal/internal/buildinfo"
	"github.com/dmitrijs2005/taskjournal/internal/client/config"
	"github.com/spf13/cobra"
)

// rootCommand builds the App lazily so that help and flag errors never
// open the database.
type rootCommand struct {
	cfg    *config.Config
	newApp AppFactory
	app    *App
}

// Execute loads the configuration for args and runs the matching command.
func Execute(ctx context.Context, args []string, newApp AppFactory) error {
	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}

	r := &rootCommand{cfg: cfg, newApp: newApp}
	cmd := r.command()
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(ctx)
	if r.app != nil {
		err = errors.Join(err, r.app.Close(ctx))
	}
	return err
}

func (r *rootCommand) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskjournal",
		Short:         "End-to-end encrypted task lists",
		Version:       buildinfo.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	r.cfg.BindFlags(root.PersistentFlags())

	root.AddCommand(
		r.registerCmd(),
		r.loginCmd(),
		r.logoutCmd(),
		r.listsCmd(),
		r.mklistCmd(),
		r.renameCmd(),
		r.rmlistCmd(),
		r.shareCmd(),
		r.addCmd(),
		r.editCmd(),
		r.doneCmd(),
		r.rmCmd(),
		r.lsCmd(),
		r.syncCmd(),
	)
	return root
}

// run adapts fn to cobra, creating the App on first use.
func (r *rootCommand) run(fn func(a *App, ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if r.app == nil {
			if err := r.cfg.Validate(); err != nil {
				return err
			}
			app, err := r.newApp(cmd.Context(), r.cfg)
			if err != nil {
				return err
			}
			r.app = app
		}
		return fn(r.app, cmd.Context(), args)
	}
}
