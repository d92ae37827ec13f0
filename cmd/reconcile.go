package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/internal/logger"
	syncpkg "github.com/samjoshuadud/automation-notion/internal/sync"
	"github.com/samjoshuadud/automation-notion/store"
)

var (
	reconcileSource string
	reconcileFile   string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Pull assignment statuses from Notion and Todoist",
	Long: `Reconcile fetches each configured platform's view of assignment statuses
and applies it locally. This is the only operation that may move a status
backwards: checking an assignment back open on Notion un-completes it here,
and an archived assignment reported active again is restored.

Examples:
  moodlesync reconcile                              # All configured platforms
  moodlesync reconcile --source notion              # One platform only
  moodlesync reconcile --source file --file st.json # Offline status export`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().StringVar(&reconcileSource, "source", "", "limit to one source (notion, todoist or file)")
	reconcileCmd.Flags().StringVarP(&reconcileFile, "file", "f", "", "status file for --source file (json or yaml)")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	logger.SetCommand("reconcile")
	manager, s, as, err := GetArchiveManager()
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	defer func() { _ = as.Close() }()

	var sources []syncpkg.StatusSource
	if reconcileSource == "file" || reconcileFile != "" {
		if reconcileFile == "" {
			return fmt.Errorf("--file is required with --source file")
		}
		sources = []syncpkg.StatusSource{syncpkg.NewFileSource(reconcileFile)}
	} else {
		sources, err = configuredSources(reconcileSource)
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			return fmt.Errorf("no status sources configured; set notion.token or todoist.token")
		}
	}

	reconciler := newReconciler(s, manager)
	for _, source := range sources {
		result, err := reconciler.ReconcileSource(cmd.Context(), source)
		if err != nil {
			PrintError(fmt.Sprintf("Status sync from %s failed.", source.Name()), err)
			continue
		}
		cmd.Printf("%s sync: updated %d, restored %d assignments (%d active, %d archived)\n",
			source.Name(), result.Updated, result.Restored, result.TotalActive, result.TotalArchived)
	}
	return nil
}

func newReconciler(s store.AssignmentStore, manager *archive.Manager) *syncpkg.Reconciler {
	return syncpkg.NewReconciler(s, manager)
}

// configuredSources builds the status sources that have credentials in the
// config. With a non-empty filter only the named platform is returned.
func configuredSources(filter string) ([]syncpkg.StatusSource, error) {
	cfg := GetConfig()
	var sources []syncpkg.StatusSource

	if cfg.Notion.Token != "" && cfg.Notion.DatabaseID != "" {
		sources = append(sources, syncpkg.NewNotionClient(syncpkg.NotionClientOptions{
			BaseURL:    cfg.Notion.BaseURL,
			Token:      cfg.Notion.Token,
			DatabaseID: cfg.Notion.DatabaseID,
		}))
	}
	if cfg.Todoist.Token != "" {
		sources = append(sources, syncpkg.NewTodoistClient(syncpkg.TodoistClientOptions{
			BaseURL:   cfg.Todoist.BaseURL,
			Token:     cfg.Todoist.Token,
			ProjectID: cfg.Todoist.ProjectID,
		}))
	}

	if filter == "" {
		return sources, nil
	}
	for _, source := range sources {
		if source.Name() == filter {
			return []syncpkg.StatusSource{source}, nil
		}
	}
	return nil, fmt.Errorf("source %q is not configured (want notion or todoist)", filter)
}
