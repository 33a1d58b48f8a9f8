package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Output       OutputConfig       `mapstructure:"output"`
	Transfer     TransferConfig     `mapstructure:"transfer"`
	Exec         ExecConfig         `mapstructure:"exec"`
	History      HistoryConfig      `mapstructure:"history"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// OutputConfig controls how output file paths are built
type OutputConfig struct {
	Dir   string   `mapstructure:"dir"`   // empty means current working directory
	File  string   `mapstructure:"file"`  // explicit file name, overrides Name
	Name  string   `mapstructure:"name"`  // naming template, e.g. "%t.%e"
	Regex []string `mapstructure:"regex"` // rewrite rules, e.g. "%t:s/\s\s+/ /"
}

// TransferConfig contains transfer-related configuration
type TransferConfig struct {
	ResumeFrom     string        `mapstructure:"resume_from"` // none, auto, overwrite or a byte offset
	Overwrite      bool          `mapstructure:"overwrite"`
	SkipTransfer   bool          `mapstructure:"skip_transfer"`
	Stream         string        `mapstructure:"stream"`
	UserAgent      string        `mapstructure:"user_agent"`
	Proxy          string        `mapstructure:"proxy"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	Timeout        time.Duration `mapstructure:"timeout"` // 0 disables the overall timeout
}

// ExecConfig contains post-download command configuration
type ExecConfig struct {
	External     []string `mapstructure:"external"`
	EnableStdout bool     `mapstructure:"enable_stdout"`
	EnableStderr bool     `mapstructure:"enable_stderr"`
	DumpArgv     bool     `mapstructure:"dump_argv"`
}

// HistoryConfig contains transfer history configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // dated per-category JSON files, server only
}

// DefaultOutputRegex holds the rewrite rules applied to titles when none are configured.
// They keep word characters and whitespace only, then tidy the whitespace.
var DefaultOutputRegex = []string{
	`%t:/\w|\s/`,
	`%t:s/\s\s+/ /`,
	`%t:s/^\s+//`,
	`%t:s/\s+$//`,
}

// DefaultOutputName is the naming template used when none is configured
const DefaultOutputName = "%t.%e"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8090,
		},
		Output: OutputConfig{
			Dir:   "",
			Name:  DefaultOutputName,
			Regex: append([]string(nil), DefaultOutputRegex...),
		},
		Transfer: TransferConfig{
			ResumeFrom:     "auto",
			Overwrite:      false,
			SkipTransfer:   false,
			UserAgent:      "Mozilla/5.0",
			ConnectTimeout: 30 * time.Second,
			Timeout:        0,
		},
		Exec: ExecConfig{},
		History: HistoryConfig{
			Enabled:      false,
			DatabasePath: "$HOME/.mediaget/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}
