package cfg

import "time"

type Cfg struct {
	// Server configuration
	Port string

	// Source and store configuration
	SourcesFile string
	Store       string
	SQLiteDSN   string

	// Aggregation configuration
	AggregationMode string
	MaxArticles     int
	FetchTimeout    time.Duration
	RefreshCron     string
	StartupDelay    time.Duration

	// Static generation
	Generate  bool
	PublicDir string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
