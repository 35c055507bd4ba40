package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (r *rootCommand) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull remote changes and push local ones",
		Args:  cobra.NoArgs,
		RunE:  r.run((*App).Sync),
	}
}

// Sync runs one pass over every list and reports each list separately.
// It fails when the pass was interrupted or any list failed.
func (a *App) Sync(ctx context.Context, _ []string) error {
	acc, err := a.unlock(ctx)
	if err != nil {
		return err
	}

	results, err := a.syncer.Sync(ctx, acc)

	failed := 0
	for _, res := range results {
		name := res.Name
		if name == "" {
			name = res.CollectionUID
		}
		if !res.OK() {
			failed++
			a.printf("%s: failed (%s): %v\n", name, res.Kind, res.Err)
			continue
		}
		a.printf("%s: pulled %d, pushed %d\n", name, res.Pulled, res.Pushed)
	}

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lists failed to sync", failed, len(results))
	}
	return nil
}
