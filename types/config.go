package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose   bool            `mapstructure:"verbose"`
	Config    string          `mapstructure:"config"`
	Project   ProjectConfig   `mapstructure:"project" validate:"required"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	Dedup     DedupConfig     `mapstructure:"dedup" validate:"required"`
	Archive   ArchiveConfig   `mapstructure:"archive" validate:"required"`
	Notion    NotionConfig    `mapstructure:"notion" validate:"omitempty"`
	Todoist   TodoistConfig   `mapstructure:"todoist" validate:"omitempty"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"omitempty"`
}

// ProjectConfig holds project-related settings
type ProjectConfig struct {
	RootDir       string `mapstructure:"rootDir" validate:"required"`
	DataDir       string `mapstructure:"dataDir" validate:"required"`
	OutputLogPath string `mapstructure:"outputLogPath"`
}

// DataConfig holds storage configuration for the active and archive
// collections.
type DataConfig struct {
	File   string `mapstructure:"file" validate:"required"`
	Format string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
	// ArchiveFile is the single-file archive container.
	ArchiveFile string `mapstructure:"archiveFile" validate:"required"`
	// MarkdownFile, when set, receives a human-readable table of the active
	// collection on every save.
	MarkdownFile string `mapstructure:"markdownFile"`
}

// DedupConfig holds duplicate-detection tuning.
type DedupConfig struct {
	// FuzzyThreshold is the minimum similarity ratio for a fuzzy match.
	FuzzyThreshold float64 `mapstructure:"fuzzyThreshold" validate:"gt=0,lte=1"`
	// AmbiguityBand: when the two best fuzzy scores are both above the
	// threshold and closer than this, the candidate is treated as new.
	AmbiguityBand float64 `mapstructure:"ambiguityBand" validate:"gte=0,lt=1"`
}

// ArchiveConfig holds the archive lifecycle policy.
type ArchiveConfig struct {
	// RetentionDays is how long a completed assignment stays active before
	// the cleanup scan moves it to the archive.
	RetentionDays int `mapstructure:"retentionDays" validate:"min=1"`
}

// NotionConfig holds Notion API access settings.
type NotionConfig struct {
	Token      string `mapstructure:"token"`
	DatabaseID string `mapstructure:"databaseId"`
	BaseURL    string `mapstructure:"baseUrl"`
}

// TodoistConfig holds Todoist API access settings.
type TodoistConfig struct {
	Token     string `mapstructure:"token"`
	ProjectID string `mapstructure:"projectId"`
	BaseURL   string `mapstructure:"baseUrl"`
}

// SchedulerConfig holds settings for the long-running schedule command.
type SchedulerConfig struct {
	IntervalMinutes int    `mapstructure:"intervalMinutes" validate:"omitempty,min=1"`
	ListenAddr      string `mapstructure:"listenAddr"`
	CandidatesFile  string `mapstructure:"candidatesFile"`
}
