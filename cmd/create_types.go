package cmd

// CreateConfig holds all configuration for the create command
type CreateConfig struct {
	SecretName      string
	SecretNamespace string
	SecretType      string
	ValuesFile      string
	InlineValuesRaw []string
	OutputDir       string
	FilenamePattern string
	SopsBin         string
	DryRun          bool
	Interactive     bool

	GitConfig *GitConfig
	PRConfig  *PRConfig
}

// GitConfig holds git workflow options for create
type GitConfig struct {
	Commit       bool
	Push         bool
	CreateBranch bool
	Message      string
	Branch       string
	Remote       string
	User         string
	Token        string
}

// PRConfig holds pull request options for create
type PRConfig struct {
	Create      bool
	Title       string
	Description string
	Labels      []string
	BaseBranch  string
}

// CreateResult holds the outcome of creating an encrypted secret
type CreateResult struct {
	SecretName      string
	SecretNamespace string
	Content         string
	OutputPath      string
}
