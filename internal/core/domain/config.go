package domain

// LogConfig selects where log records go.
type LogConfig struct {
	Level   LogLevel
	File    string
	Journal bool
}

// Config is the validated content of blitz.yaml.
type Config struct {
	// StateDir holds the artifact records and default failure report.
	StateDir  string
	Log       LogConfig
	Release   ReleaseInfo
	Installer string
	BuildTool string
	Plan      BuildPlan
	Pipeline  PipelineSpec
	Policy    RetryPolicy
}
