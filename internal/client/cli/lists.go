package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (r *rootCommand) listsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show task lists",
		Args:  cobra.NoArgs,
		RunE:  r.run((*App).Lists),
	}
}

func (r *rootCommand) mklistCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "mklist NAME",
		Short: "Create a task list",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.MakeList(ctx, args[0], color)
		}),
	}
	cmd.Flags().StringVar(&color, "color", "", "list color, e.g. #ff0000")
	return cmd
}

func (r *rootCommand) renameCmd() *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "rename LIST NAME",
		Short: "Rename a task list",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.RenameList(ctx, args[0], args[1], color)
		}),
	}
	cmd.Flags().StringVar(&color, "color", "", "new list color")
	return cmd
}

func (r *rootCommand) rmlistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rmlist LIST",
		Short: "Delete a task list on the server",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.RemoveList(ctx, args[0])
		}),
	}
}

func (r *rootCommand) shareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share LIST USERNAME",
		Short: "Give another user access to a task list",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.ShareList(ctx, args[0], args[1])
		}),
	}
}

func (a *App) Lists(ctx context.Context, _ []string) error {
	lists, err := a.collections.List(ctx)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		a.printf("No lists, create one with mklist or run sync\n")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, c := range lists {
		shared := ""
		if c.Shared {
			shared = "shared"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", c.UID, c.Name, shared)
	}
	return w.Flush()
}

func (a *App) MakeList(ctx context.Context, name, color string) error {
	acc, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	c, err := a.collections.Create(ctx, acc, name, color)
	if err != nil {
		return err
	}
	a.printf("Created %s (%s)\n", c.Name, c.UID)
	return nil
}

func (a *App) RenameList(ctx context.Context, ref, name, color string) error {
	c, err := a.resolveList(ctx, ref)
	if err != nil {
		return err
	}
	acc, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	if err := a.collections.Rename(ctx, acc, c.UID, name, color); err != nil {
		return err
	}
	a.printf("Renamed %s to %s\n", c.Name, name)
	return nil
}

func (a *App) RemoveList(ctx context.Context, ref string) error {
	c, err := a.resolveList(ctx, ref)
	if err != nil {
		return err
	}
	if _, err := a.session(ctx); err != nil {
		return err
	}
	if err := a.collections.Delete(ctx, c.UID); err != nil {
		return err
	}
	a.printf("Deleted %s\n", c.Name)
	return nil
}

func (a *App) ShareList(ctx context.Context, ref, username string) error {
	c, err := a.resolveList(ctx, ref)
	if err != nil {
		return err
	}
	acc, err := a.unlock(ctx)
	if err != nil {
		return err
	}
	if err := a.collections.Share(ctx, acc, c.UID, username); err != nil {
		return err
	}
	a.printf("Shared %s with %s\n", c.Name, username)
	return nil
}
