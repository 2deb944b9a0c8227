// Package config provides project-level configuration for mirrorsync.
// It supports loading configuration from .mirrorsync/config.yaml files with
// proper precedence: CLI flags > environment > project config > defaults.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name for mirrorsync configuration
	ConfigDir = ".mirrorsync"
	// ConfigFile is the name of the configuration file
	ConfigFile = "config.yaml"
	// ConfigPath is the full path to the config file relative to project root
	ConfigPath = ConfigDir + "/" + ConfigFile
)

// Built-in defaults. The strings around commits, branches, labels and the
// review request match what the mirror repositories already contain, so runs
// of different versions of the tool stay deduplicated against each other.
const (
	// DefaultRemoteName is the remote name used for the parent repository
	// inside the mirror clone.
	DefaultRemoteName = "parent-repo"

	// DefaultBaseBranch is the mirror's default branch.
	DefaultBaseBranch = "main"

	// DefaultManifestPath is where the sync manifest lives in the parent
	// repository.
	DefaultManifestPath = ".mirrorsync/manifest.yaml"

	// DefaultPolicy is the branch reconciliation policy.
	DefaultPolicy = "continue"

	// DefaultLabelName is the label attached to sync pull requests.
	DefaultLabelName = "automated pr"
	// DefaultLabelColor is the label color (GitHub hex, no #).
	DefaultLabelColor = "0E8A16"
	// DefaultLabelDescription is the label description.
	DefaultLabelDescription = "Automated pull request"

	// DefaultCommentBody is posted on an already-open sync PR.
	DefaultCommentBody = "Automatically updated"

	// DefaultBotName and DefaultBotEmail are the committer identity used
	// when none is configured. They match the GitHub Actions bot user.
	DefaultBotName  = "github-actions[bot]"
	DefaultBotEmail = "41898282+github-actions[bot]@users.noreply.github.com"
)

// ProjectConfig represents the project-level configuration for mirrorsync.
// It provides defaults that can be overridden by CLI flags and environment.
type ProjectConfig struct {
	// Mirror is the downstream repository receiving synced files, owner/name.
	Mirror string `yaml:"mirror,omitempty"`

	// BaseBranch is the mirror's default branch.
	BaseBranch string `yaml:"base_branch,omitempty"`

	// Policy selects branch reconciliation behavior: "continue" or "reset".
	Policy string `yaml:"policy,omitempty"`

	// Manifest is the path of the sync manifest in the parent repository.
	Manifest string `yaml:"manifest,omitempty"`

	// RemoteName is the name given to the parent remote in the mirror clone.
	RemoteName string `yaml:"remote_name,omitempty"`

	// Label configures the label attached to sync pull requests.
	Label LabelConfig `yaml:"label,omitempty"`

	// Assignee is assigned to created pull requests when set.
	Assignee string `yaml:"assignee,omitempty"`

	// Reviewer is requested on created pull requests when set.
	Reviewer string `yaml:"reviewer,omitempty"`

	// Comment is the body posted on an already-open sync PR.
	Comment string `yaml:"comment,omitempty"`

	// Git contains the committer identity for sync commits.
	Git GitConfig `yaml:"git,omitempty"`

	// LogLevel is the default log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
}

// LabelConfig describes the label applied to sync pull requests.
type LabelConfig struct {
	Name        string `yaml:"name,omitempty"`
	Color       string `yaml:"color,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// GitConfig contains the git identity used for sync commits.
type GitConfig struct {
	// AuthorName overrides git user.name for sync commits
	AuthorName string `yaml:"author_name,omitempty"`

	// AuthorEmail overrides git user.email for sync commits
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// Env carries the environment-variable layer of the configuration. The
// token variables are read by pkg/github directly; everything else is
// decoded here.
type Env struct {
	Mirror     string `env:"MIRRORSYNC_MIRROR"`
	BaseBranch string `env:"MIRRORSYNC_BASE_BRANCH"`
	Policy     string `env:"MIRRORSYNC_POLICY"`
	Manifest   string `env:"MIRRORSYNC_MANIFEST"`
	RemoteName string `env:"MIRRORSYNC_REMOTE_NAME"`
	Assignee   string `env:"MIRRORSYNC_ASSIGNEE"`
	Reviewer   string `env:"MIRRORSYNC_REVIEWER"`
	LogLevel   string `env:"MIRRORSYNC_LOG_LEVEL"`

	// GitHub App authentication, as an alternative to a static token.
	AppID             int64  `env:"MIRRORSYNC_APP_ID"`
	AppInstallationID int64  `env:"MIRRORSYNC_APP_INSTALLATION_ID"`
	AppKeyPath        string `env:"MIRRORSYNC_APP_KEY_PATH"`

	// Copy mode inputs (clone URLs rather than API refs).
	SourceRepoURL string `env:"SOURCE_REPO_URL"`
	TargetRepoURL string `env:"TARGET_REPO_URL"`
}

// LoadEnv decodes the environment-variable configuration layer.
func LoadEnv(ctx context.Context) (*Env, error) {
	var e Env
	if err := envconfig.Process(ctx, &e); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &e, nil
}

// UseAppAuth reports whether GitHub App credentials are fully configured.
func (e *Env) UseAppAuth() bool {
	return e.AppID != 0 && e.AppInstallationID != 0 && e.AppKeyPath != ""
}

// Load loads the project configuration from the given directory.
// It searches for .mirrorsync/config.yaml in the directory and its parents.
//
// If no config file is found, it returns a zero config and nil error.
// If a config file is found but cannot be parsed, it returns an error.
func Load(dir string) (*ProjectConfig, error) {
	configPath, err := findConfigPath(dir)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		// No config file found, return zero config
		return &ProjectConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads the project configuration from the current working directory.
func LoadFromCurrentDir() (*ProjectConfig, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	return Load(dir)
}

// findConfigPath searches for .mirrorsync/config.yaml in dir and its parent
// directories. It returns the full path to the config file, or empty string
// if not found.
func findConfigPath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for {
		configPath := filepath.Join(absDir, ConfigPath)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parentDir := filepath.Dir(absDir)
		if parentDir == absDir {
			// Reached root without finding config
			return "", nil
		}
		absDir = parentDir
	}
}

// Resolve returns the effective value for a string configuration field.
// Precedence: cliValue > envValue > configValue > defaultValue.
// Returns the effective value and its source ("cli", "env", "config", or
// "default").
func Resolve(cliValue, envValue, configValue, defaultValue string) (string, string) {
	if cliValue != "" {
		return cliValue, "cli"
	}
	if envValue != "" {
		return envValue, "env"
	}
	if configValue != "" {
		return configValue, "config"
	}
	return defaultValue, "default"
}

// ResolveMirror returns the effective mirror repository and its source.
func (c *ProjectConfig) ResolveMirror(cliValue, envValue string) (string, string) {
	return Resolve(cliValue, envValue, c.Mirror, "")
}

// ResolveBaseBranch returns the effective base branch and its source.
func (c *ProjectConfig) ResolveBaseBranch(cliValue, envValue string) (string, string) {
	return Resolve(cliValue, envValue, c.BaseBranch, DefaultBaseBranch)
}

// ResolvePolicy returns the effective branch policy and its source.
func (c *ProjectConfig) ResolvePolicy(cliValue, envValue string) (string, string) {
	return Resolve(cliValue, envValue, c.Policy, DefaultPolicy)
}

// ResolveManifest returns the effective manifest path and its source.
func (c *ProjectConfig) ResolveManifest(cliValue, envValue string) (string, string) {
	return Resolve(cliValue, envValue, c.Manifest, DefaultManifestPath)
}

// ResolveRemoteName returns the effective parent remote name and its source.
func (c *ProjectConfig) ResolveRemoteName(cliValue, envValue string) (string, string) {
	return Resolve(cliValue, envValue, c.RemoteName, DefaultRemoteName)
}

// ResolveComment returns the effective PR comment body and its source.
func (c *ProjectConfig) ResolveComment(cliValue string) (string, string) {
	return Resolve(cliValue, "", c.Comment, DefaultCommentBody)
}

// ResolveLogLevel returns the effective log level and its source.
func (c *ProjectConfig) ResolveLogLevel(cliValue, envValue, defaultValue string) (string, string) {
	return Resolve(cliValue, envValue, c.LogLevel, defaultValue)
}

// ResolveLabel returns the effective label configuration, filling unset
// fields with the defaults.
func (c *ProjectConfig) ResolveLabel() LabelConfig {
	label := c.Label
	if label.Name == "" {
		label.Name = DefaultLabelName
	}
	if label.Color == "" {
		label.Color = DefaultLabelColor
	}
	if label.Description == "" {
		label.Description = DefaultLabelDescription
	}
	return label
}

// ResolveGitIdentity returns the effective committer name and email.
func (c *ProjectConfig) ResolveGitIdentity() (string, string) {
	name := c.Git.AuthorName
	if name == "" {
		name = DefaultBotName
	}
	email := c.Git.AuthorEmail
	if email == "" {
		email = DefaultBotEmail
	}
	return name, email
}
