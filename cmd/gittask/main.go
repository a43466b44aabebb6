// Command gittask manages tasks stored as markdown files in a .tasks
// directory at the root of the enclosing git repository, or globally under
// the user's home directory.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/entrhq/gittask/pkg/cli"
	"github.com/entrhq/gittask/pkg/git"
	"github.com/entrhq/gittask/pkg/storage"
	"github.com/entrhq/gittask/pkg/task"
)

const version = "0.1.0"

const usage = `gittask - git-versioned task management using markdown files

Usage: gittask <command> [flags] [args]

Commands:
  init                      Create the .tasks directory
  add <kind> <title>        Add a task (kind: task, todo, idea)
  list                      List tasks
  show <id>                 Show task details
  complete <id>...          Mark task(s) completed
  status <id> <status>      Change a task's status
  update <id>               Update task fields
  delete <id>               Delete a task
  stats                     Show task statistics
  link [path]               Register a project for aggregated views
  unlink [path]             Unregister a project
  projects                  List registered projects
  version                   Print the version

Most commands accept -global to target ~/.tasks instead of the project.
IDs may be project-qualified, e.g. "gittask:7".
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		cli.Error(err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Print(usage)
		return nil
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return cmdInit(rest)
	case "add":
		return cmdAdd(rest)
	case "list":
		return cmdList(rest)
	case "show":
		return cmdShow(rest)
	case "complete":
		return cmdComplete(rest)
	case "status":
		return cmdStatus(rest)
	case "update":
		return cmdUpdate(rest)
	case "delete":
		return cmdDelete(rest)
	case "stats":
		return cmdStats(rest)
	case "link":
		return cmdLink(rest)
	case "unlink":
		return cmdUnlink(rest)
	case "projects":
		return cmdProjects(rest)
	case "version", "-v", "--version":
		fmt.Printf("gittask v%s\n", version)
		return nil
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q (run \"gittask help\")", cmd)
	}
}

func newFlagSet(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	global := fs.Bool("global", false, "use the global ~/.tasks location")
	return fs, global
}

func resolveLocation(global bool) (*storage.Location, error) {
	if global {
		return storage.Global()
	}
	return storage.FindProject()
}

// resolveID turns a possibly-qualified id string into the store and
// numeric id to operate on. The current location is the default for bare
// ids; outside a repository only qualified ids resolve.
func resolveID(idStr string, global bool) (*storage.FileStore, uint64, error) {
	registry, err := storage.LoadRegistry()
	if err != nil {
		return nil, 0, err
	}
	defaultLocation, err := resolveLocation(global)
	if err != nil {
		defaultLocation = nil
	}
	location, id, err := storage.ResolveQualifiedID(idStr, registry, defaultLocation)
	if err != nil {
		return nil, 0, err
	}
	return storage.NewFileStore(location), id, nil
}

func cmdInit(args []string) error {
	fs, global := newFlagSet("init")
	if err := fs.Parse(args); err != nil {
		return err
	}
	location, err := resolveLocation(*global)
	if err != nil {
		return err
	}
	if location.Exists() {
		cli.Info("Task directory already exists: " + location.TasksDir)
		return nil
	}
	if err := location.EnsureExists(); err != nil {
		return err
	}
	cli.Success("Created task directory: " + location.TasksDir)
	return nil
}

func cmdAdd(args []string) error {
	fs, global := newFlagSet("add")
	description := fs.String("d", "", "task description")
	priority := fs.String("p", "", "priority (low, medium, high, critical)")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	tags := fs.String("t", "", "comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("usage: gittask add [flags] <kind> <title>")
	}
	kind, err := task.ParseKind(fs.Arg(0))
	if err != nil {
		return err
	}
	title := strings.Join(fs.Args()[1:], " ")

	location, err := resolveLocation(*global)
	if err != nil {
		return err
	}
	if err := location.EnsureExists(); err != nil {
		return err
	}

	t := task.New(0, kind, title)
	t.Description = *description
	if *priority != "" {
		if t.Priority, err = task.ParsePriority(*priority); err != nil {
			return err
		}
	}
	if *due != "" {
		d, err := task.ParseDate(*due)
		if err != nil {
			return err
		}
		t.Due = &d
	}
	if *tags != "" {
		t.Tags = splitTags(*tags)
	}

	created, err := storage.NewFileStore(location).Create(t)
	if err != nil {
		return err
	}
	cli.Success(fmt.Sprintf("Created %s #%d: %s", created.Kind, created.ID, created.Title))
	return nil
}

func cmdList(args []string) error {
	fs, global := newFlagSet("list")
	kind := fs.String("k", "", "filter by kind")
	status := fs.String("s", "", "filter by status")
	priority := fs.String("p", "", "filter by priority")
	tags := fs.String("t", "", "filter by comma-separated tags (all must match)")
	archived := fs.Bool("a", false, "include archived tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := &storage.TaskFilter{IncludeArchived: *archived}
	var err error
	if *kind != "" {
		if filter.Kind, err = task.ParseKind(*kind); err != nil {
			return err
		}
	}
	if *status != "" {
		if filter.Status, err = task.ParseStatus(*status); err != nil {
			return err
		}
	}
	if *priority != "" {
		if filter.Priority, err = task.ParsePriority(*priority); err != nil {
			return err
		}
	}
	if *tags != "" {
		filter.Tags = splitTags(*tags)
	}

	// Global mode with linked projects shows the aggregated view.
	if *global {
		registry, err := storage.LoadRegistry()
		if err != nil {
			return err
		}
		if !registry.IsEmpty() {
			aggregated, err := storage.ListAggregated(registry, filter)
			if err != nil {
				return err
			}
			cli.PrintAggregatedList(aggregated)
			return nil
		}
	}

	location, err := resolveLocation(*global)
	if err != nil {
		return err
	}
	tasks, err := storage.NewFileStore(location).List(filter)
	if err != nil {
		return err
	}
	cli.PrintTaskList(tasks)
	return nil
}

func cmdShow(args []string) error {
	fs, global := newFlagSet("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: gittask show <id>")
	}
	store, id, err := resolveID(fs.Arg(0), *global)
	if err != nil {
		return err
	}
	t, err := store.Read(id)
	if err != nil {
		return err
	}
	cli.PrintTaskDetail(t)
	return nil
}

func cmdComplete(args []string) error {
	fs, global := newFlagSet("complete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: gittask complete <id>...")
	}
	for _, idStr := range fs.Args() {
		store, id, err := resolveID(idStr, *global)
		if err != nil {
			return err
		}
		t, err := store.Read(id)
		if err != nil {
			return err
		}
		t.Complete(git.HeadCommitOptional(store.Location().Root))
		if err := store.Update(t); err != nil {
			return err
		}
		cli.Success(fmt.Sprintf("Completed #%d: %s", t.ID, t.Title))
	}
	return nil
}

func cmdStatus(args []string) error {
	fs, global := newFlagSet("status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: gittask status <id> <status>")
	}
	newStatus, err := task.ParseStatus(fs.Arg(1))
	if err != nil {
		return err
	}
	store, id, err := resolveID(fs.Arg(0), *global)
	if err != nil {
		return err
	}
	t, err := store.Read(id)
	if err != nil {
		return err
	}
	// Completing through a status change still captures the commit.
	if newStatus == task.StatusCompleted && t.Status != task.StatusCompleted {
		t.ClosedCommit = git.HeadCommitOptional(store.Location().Root)
	}
	t.Status = newStatus
	t.Touch()
	if err := store.Update(t); err != nil {
		return err
	}
	cli.Success(fmt.Sprintf("Set #%d status to %s", t.ID, t.Status))
	return nil
}

func cmdUpdate(args []string) error {
	fs, global := newFlagSet("update")
	title := fs.String("title", "", "new title")
	description := fs.String("d", "", "new description")
	priority := fs.String("p", "", "new priority")
	due := fs.String("due", "", "new due date (YYYY-MM-DD)")
	tags := fs.String("t", "", "new comma-separated tags (replaces existing)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: gittask update [flags] <id>")
	}
	store, id, err := resolveID(fs.Arg(0), *global)
	if err != nil {
		return err
	}
	t, err := store.Read(id)
	if err != nil {
		return err
	}
	if *title != "" {
		t.Title = *title
	}
	if *description != "" {
		t.Description = *description
	}
	if *priority != "" {
		if t.Priority, err = task.ParsePriority(*priority); err != nil {
			return err
		}
	}
	if *due != "" {
		d, err := task.ParseDate(*due)
		if err != nil {
			return err
		}
		t.Due = &d
	}
	if *tags != "" {
		t.Tags = splitTags(*tags)
	}
	t.Touch()
	if err := store.Update(t); err != nil {
		return err
	}
	cli.Success(fmt.Sprintf("Updated #%d: %s", t.ID, t.Title))
	return nil
}

func cmdDelete(args []string) error {
	fs, global := newFlagSet("delete")
	force := fs.Bool("f", false, "skip confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: gittask delete [-f] <id>")
	}
	store, id, err := resolveID(fs.Arg(0), *global)
	if err != nil {
		return err
	}
	if !*force {
		t, err := store.Read(id)
		if err != nil {
			return err
		}
		fmt.Printf("Delete #%d %q? [y/N] ", t.ID, t.Title)
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(line), "y") {
			cli.Info("Cancelled.")
			return nil
		}
	}
	if err := store.Delete(id); err != nil {
		return err
	}
	cli.Success(fmt.Sprintf("Deleted #%d", id))
	return nil
}

func cmdStats(args []string) error {
	fs, global := newFlagSet("stats")
	if err := fs.Parse(args); err != nil {
		return err
	}
	location, err := resolveLocation(*global)
	if err != nil {
		return err
	}
	stats, err := storage.NewFileStore(location).Stats()
	if err != nil {
		return err
	}
	cli.PrintStats(stats)
	return nil
}

func cmdLink(args []string) error {
	fs, global := newFlagSet("link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := registryTarget(fs.Args(), *global)
	if err != nil {
		return err
	}
	registry, err := storage.LoadRegistry()
	if err != nil {
		return err
	}
	linked, err := registry.Link(path)
	if err != nil {
		return err
	}
	if linked {
		cli.Success("Linked project: " + path)
	} else {
		cli.Info("Project already linked: " + path)
	}
	return nil
}

func cmdUnlink(args []string) error {
	fs, global := newFlagSet("unlink")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := registryTarget(fs.Args(), *global)
	if err != nil {
		return err
	}
	registry, err := storage.LoadRegistry()
	if err != nil {
		return err
	}
	removed, err := registry.Unlink(path)
	if err != nil {
		return err
	}
	if removed {
		cli.Success("Unlinked project: " + path)
	} else {
		cli.Info("Project was not linked: " + path)
	}
	return nil
}

func cmdProjects(args []string) error {
	fs, _ := newFlagSet("projects")
	if err := fs.Parse(args); err != nil {
		return err
	}
	registry, err := storage.LoadRegistry()
	if err != nil {
		return err
	}
	cli.PrintProjects(storage.ProjectStatuses(registry))
	return nil
}

// registryTarget picks the explicit path argument, falling back to the
// current project root.
func registryTarget(args []string, global bool) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	location, err := resolveLocation(global)
	if err != nil {
		return "", err
	}
	return location.Root, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
