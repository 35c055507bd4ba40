package cli

import (
	"context"

	"github.com/dmitrijs2005/taskjournal/internal/client/models"
	"github.com/dmitrijs2005/taskjournal/internal/client/services"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type taskFlags struct {
	title    string
	notes    string
	priority int
	due      string
	noDue    bool
	parent   int64
	noParent bool
}

func (r *rootCommand) addCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add LIST TITLE",
		Short: "Add a task",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.AddTask(ctx, args[0], args[1], f)
		}),
	}
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", `notes, "-" to type them`)
	cmd.Flags().IntVarP(&f.priority, "priority", "p", 0, "priority 1 (high) to 9, 0 for none")
	cmd.Flags().StringVarP(&f.due, "due", "d", "", "due date, YYYY-MM-DD or RFC 3339")
	cmd.Flags().Int64Var(&f.parent, "parent", 0, "id of the task to nest this one under")
	return cmd
}

func (r *rootCommand) editCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a task",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", `new notes, "-" to type them`)
	cmd.Flags().IntVarP(&f.priority, "priority", "p", 0, "new priority")
	cmd.Flags().StringVarP(&f.due, "due", "d", "", "new due date")
	cmd.Flags().BoolVar(&f.noDue, "no-due", false, "remove the due date")
	cmd.Flags().Int64Var(&f.parent, "parent", 0, "id of the new parent task")
	cmd.Flags().BoolVar(&f.noParent, "no-parent", false, "move the task to the top level")
	cmd.MarkFlagsMutuallyExclusive("parent", "no-parent")

	cmd.RunE = r.run(func(a *App, ctx context.Context, args []string) error {
		e, err := a.taskEdit(cmd.Flags(), f)
		if err != nil {
			return err
		}
		return a.EditTask(ctx, args[0], e)
	})
	return cmd
}

func (r *rootCommand) doneCmd() *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done ID",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.CompleteTask(ctx, args[0], !undo)
		}),
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task open again")
	return cmd
}

func (r *rootCommand) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.RemoveTask(ctx, args[0])
		}),
	}
}

func (r *rootCommand) lsCmd() *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "ls LIST",
		Short: "Show the tasks of a list",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, ctx context.Context, args []string) error {
			return a.ListTasks(ctx, args[0], open)
		}),
	}
	cmd.Flags().BoolVar(&open, "open", false, "hide completed tasks")
	return cmd
}

func (a *App) AddTask(ctx context.Context, ref, title string, f taskFlags) error {
	c, err := a.resolveList(ctx, ref)
	if err != nil {
		return err
	}

	t := models.Task{Title: title, Priority: f.priority}
	if t.Notes, err = a.readNotes(f.notes); err != nil {
		return err
	}
	if f.due != "" {
		due, err := parseDue(f.due)
		if err != nil {
			return err
		}
		t.DueAt = &due
	}

	added, err := a.tasks.Add(ctx, c.UID, t, f.parent)
	if err != nil {
		return err
	}
	a.printf("%s\n", formatTask(*added))
	return nil
}

// taskEdit collects the flags the user actually set.
func (a *App) taskEdit(fs *pflag.FlagSet, f taskFlags) (services.TaskEdit, error) {
	var e services.TaskEdit
	if fs.Changed("title") {
		e.Title = &f.title
	}
	if fs.Changed("notes") {
		notes, err := a.readNotes(f.notes)
		if err != nil {
			return e, err
		}
		e.Notes = &notes
	}
	if fs.Changed("priority") {
		e.Priority = &f.priority
	}
	if fs.Changed("due") {
		due, err := parseDue(f.due)
		if err != nil {
			return e, err
		}
		e.DueAt = &due
	}
	e.ClearDue = f.noDue
	switch {
	case fs.Changed("parent"):
		e.Parent = &f.parent
	case f.noParent:
		var top int64
		e.Parent = &top
	}
	return e, nil
}

func (a *App) EditTask(ctx context.Context, idArg string, e services.TaskEdit) error {
	id, err := parseTaskID(idArg)
	if err != nil {
		return err
	}
	t, err := a.tasks.Edit(ctx, id, e)
	if err != nil {
		return err
	}
	a.printf("%s\n", formatTask(*t))
	return nil
}

func (a *App) CompleteTask(ctx context.Context, idArg string, done bool) error {
	id, err := parseTaskID(idArg)
	if err != nil {
		return err
	}
	t, err := a.tasks.Complete(ctx, id, done)
	if err != nil {
		return err
	}
	a.printf("%s\n", formatTask(*t))
	return nil
}

func (a *App) RemoveTask(ctx context.Context, idArg string) error {
	id, err := parseTaskID(idArg)
	if err != nil {
		return err
	}
	if err := a.tasks.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted task %d\n", id)
	return nil
}

func (a *App) ListTasks(ctx context.Context, ref string, openOnly bool) error {
	c, err := a.resolveList(ctx, ref)
	if err != nil {
		return err
	}
	tasks, err := a.tasks.List(ctx, c.UID)
	if err != nil {
		return err
	}

	if openOnly {
		open := tasks[:0]
		for _, t := range tasks {
			if !t.Completed() {
				open = append(open, t)
			}
		}
		tasks = open
	}

	a.printf("%s\n", c.Name)
	for _, row := range taskTree(tasks) {
		a.printf("%s\n", formatTaskAt(row.task, row.depth))
	}
	if len(tasks) == 0 {
		a.printf("  no tasks\n")
	}
	return nil
}

type treeRow struct {
	task  models.Task
	depth int
}

// taskTree orders tasks so subtasks follow their parent. A task whose
// parent is not in tasks is shown at the top level.
func taskTree(tasks []models.Task) []treeRow {
	listed := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.RemoteID != "" {
			listed[t.RemoteID] = true
		}
	}

	children := make(map[string][]models.Task)
	var roots []models.Task
	for _, t := range tasks {
		if t.ParentRemoteID != "" && t.ParentRemoteID != t.RemoteID && listed[t.ParentRemoteID] {
			children[t.ParentRemoteID] = append(children[t.ParentRemoteID], t)
			continue
		}
		roots = append(roots, t)
	}

	rows := make([]treeRow, 0, len(tasks))
	seen := make(map[int64]bool, len(tasks))
	var walk func(t models.Task, depth int)
	walk = func(t models.Task, depth int) {
		if seen[t.ID] {
			return
		}
		seen[t.ID] = true
		rows = append(rows, treeRow{task: t, depth: depth})
		if t.RemoteID == "" {
			return
		}
		for _, c := range children[t.RemoteID] {
			walk(c, depth+1)
		}
	}
	for _, t := range roots {
		walk(t, 0)
	}
	// parent cycles from other devices have no root
	for _, t := range tasks {
		walk(t, 0)
	}
	return rows
}
