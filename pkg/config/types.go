package config

// Default values applied to an experiment before validation.
const (
	DefaultNInit         = 20
	DefaultNIter         = 40
	DefaultNRepl         = 50
	DefaultSeed          = 101
	DefaultModel         = "linear"
	DefaultUpperQuantile = 0.9
	DefaultKNeighbors    = 5
	DefaultLogLevel      = "info"
)

// Experiment is one sequential-learning benchmark: which data to use, how
// the greedy acquisition is replicated and which regression model guides it.
type Experiment struct {
	LogLevel   string     `yaml:"log_level"`
	Dataset    Dataset    `yaml:"dataset"`
	Simulation Simulation `yaml:"simulation"`
	Model      Model      `yaml:"model"`
	Report     Report     `yaml:"report"`
	// Compare lists additional models run against the same data and seed
	// and drawn on the same figure as Model.
	Compare []Model `yaml:"compare,omitempty"`
}

// Dataset locates the candidate table. Either Inline is set, or Response
// names the response column of a CSV read from Path (or supplied by the
// caller alongside the experiment).
type Dataset struct {
	Path     string         `yaml:"path,omitempty"`
	Response string         `yaml:"response,omitempty"`
	Features []string       `yaml:"features,omitempty"`
	Inline   *InlineDataset `yaml:"inline,omitempty"`
}

// InlineDataset embeds the feature matrix and response vector directly.
type InlineDataset struct {
	Features  [][]float64 `yaml:"x"`
	Responses []float64   `yaml:"y"`
}

// Simulation holds the replication parameters
type Simulation struct {
	NInit int   `yaml:"n_init"`
	NIter int   `yaml:"n_iter"`
	NRepl int   `yaml:"n_repl"`
	Seed  int64 `yaml:"seed"`
}

// Model selects the regression model guiding acquisition
type Model struct {
	Name      string  `yaml:"name"`  // linear, ridge or knn
	Label     string  `yaml:"label"` // legend label; defaults to Name
	Alpha     float64 `yaml:"alpha,omitempty"`
	Intercept *bool   `yaml:"intercept,omitempty"`
	K         int     `yaml:"k,omitempty"`
}

// FitIntercept reports whether the model fits an intercept term (default true).
func (m Model) FitIntercept() bool {
	return m.Intercept == nil || *m.Intercept
}

// DisplayLabel returns the label used in reports.
func (m Model) DisplayLabel() string {
	if m.Label != "" {
		return m.Label
	}
	return m.Name
}

// Report controls the summary outputs
type Report struct {
	UpperQuantile float64 `yaml:"upper_quantile"`
	PlotPath      string  `yaml:"plot_path,omitempty"`
	SummaryPath   string  `yaml:"summary_path,omitempty"`
	HistoryPath   string  `yaml:"history_path,omitempty"`
	Title         string  `yaml:"title,omitempty"`
}
