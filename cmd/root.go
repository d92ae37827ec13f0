package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/samjoshuadud/automation-notion/internal/archive"
	"github.com/samjoshuadud/automation-notion/store"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "moodlesync",
	Version: version,
	Short:   "moodlesync keeps scraped Moodle assignments deduplicated and synced.",
	Long: `moodlesync maintains a local collection of Moodle assignments.
It ingests scraped candidates with duplicate detection, archives completed
work after a retention period, and reconciles status changes from Notion
and Todoist.`,
	Run: func(cmd *cobra.Command, args []string) {
		// return help if no args are provided
		if len(args) == 0 {
			_ = cmd.Help()
			os.Exit(0)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.moodlesync.yaml or ./.moodlesync.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Bind persistent flags to Viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// GetDataFilePath returns the full path to the active assignments file.
func GetDataFilePath() string {
	config := GetConfig()
	return filepath.Join(config.Project.RootDir, config.Project.DataDir, config.Data.File)
}

// GetArchiveFilePath returns the full path to the archive container file.
func GetArchiveFilePath() string {
	config := GetConfig()
	return filepath.Join(config.Project.RootDir, config.Project.DataDir, config.Data.ArchiveFile)
}

// GetStore initializes and returns the assignment store using the unified types.AppConfig.
func GetStore() (store.AssignmentStore, error) {
	s := store.NewFileAssignmentStore()
	config := GetConfig()

	dataFilePath := GetDataFilePath()

	markdownPath := ""
	if config.Data.MarkdownFile != "" {
		markdownPath = filepath.Join(config.Project.RootDir, config.Project.DataDir, config.Data.MarkdownFile)
	}

	err := s.Initialize(map[string]string{
		"dataFile":       dataFilePath,
		"dataFileFormat": config.Data.Format,
		"markdownFile":   markdownPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store at %s: %w", dataFilePath, err)
	}
	return s, nil
}

// GetArchiveStore initializes and returns the archive store.
func GetArchiveStore() (store.ArchiveStore, error) {
	s := store.NewFileArchiveStore()
	archivePath := GetArchiveFilePath()

	if err := s.Initialize(map[string]string{"archiveFile": archivePath}); err != nil {
		return nil, fmt.Errorf("failed to initialize archive store at %s: %w", archivePath, err)
	}
	return s, nil
}

// GetArchiveManager wires both stores into an archive manager with the
// configured retention policy. The caller closes both stores.
func GetArchiveManager() (*archive.Manager, store.AssignmentStore, store.ArchiveStore, error) {
	s, err := GetStore()
	if err != nil {
		return nil, nil, nil, err
	}
	as, err := GetArchiveStore()
	if err != nil {
		_ = s.Close()
		return nil, nil, nil, err
	}
	m := archive.NewManager(s, as)
	m.RetentionDays = GetConfig().Archive.RetentionDays
	return m, s, as, nil
}
