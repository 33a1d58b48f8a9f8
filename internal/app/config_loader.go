package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"github.com/yourusername/mediaget-go/internal/domain"
	"github.com/yourusername/mediaget-go/internal/sequence"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. MEDIAGET_TRANSFER_RESUME_FROM
const EnvPrefix = "MEDIAGET"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.mediaget")
		v.AddConfigPath("/etc/mediaget")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about
	setDefaults(v, domain.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Decoding into filled slices would merge lists element by element
	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// configKeys flattens the configuration into viper's dotted keys
func configKeys(config *domain.Config) map[string]interface{} {
	return map[string]interface{}{
		"server.host":              config.Server.Host,
		"server.port":              config.Server.Port,
		"output.dir":               config.Output.Dir,
		"output.file":              config.Output.File,
		"output.name":              config.Output.Name,
		"output.regex":             config.Output.Regex,
		"transfer.resume_from":     config.Transfer.ResumeFrom,
		"transfer.overwrite":       config.Transfer.Overwrite,
		"transfer.skip_transfer":   config.Transfer.SkipTransfer,
		"transfer.stream":          config.Transfer.Stream,
		"transfer.user_agent":      config.Transfer.UserAgent,
		"transfer.proxy":           config.Transfer.Proxy,
		"transfer.connect_timeout": config.Transfer.ConnectTimeout,
		"transfer.timeout":         config.Transfer.Timeout,
		"exec.external":            config.Exec.External,
		"exec.enable_stdout":       config.Exec.EnableStdout,
		"exec.enable_stderr":       config.Exec.EnableStderr,
		"exec.dump_argv":           config.Exec.DumpArgv,
		"history.enabled":          config.History.Enabled,
		"history.database_path":    config.History.DatabasePath,
		"notification.enabled":     config.Notification.Enabled,
		"notification.method":      config.Notification.Method,
		"logging.level":            config.Logging.Level,
		"logging.format":           config.Logging.Format,
		"logging.output_path":      config.Logging.OutputPath,
		"logging.logs_dir":         config.Logging.LogsDir,
	}
}

func setDefaults(v *viper.Viper, config *domain.Config) {
	for key, value := range configKeys(config) {
		v.SetDefault(key, value)
	}
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Output.Dir = expandPath(config.Output.Dir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration, reporting every problem found
func validateConfig(config *domain.Config) error {
	var result *multierror.Error

	if config.Server.Port < 1 || config.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid server port: %d", config.Server.Port))
	}

	if _, _, err := domain.ParseResumeFrom(config.Transfer.ResumeFrom); err != nil {
		result = multierror.Append(result, err)
	}

	if config.Output.File == "" && strings.TrimSpace(config.Output.Name) == "" {
		result = multierror.Append(result, fmt.Errorf("output name template not configured"))
	}

	if _, err := sequence.CompileRules(config.Output.Regex); err != nil {
		result = multierror.Append(result, err)
	}

	if config.Transfer.ConnectTimeout < 0 || config.Transfer.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("timeouts cannot be negative"))
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		result = multierror.Append(result, fmt.Errorf("history database path not configured"))
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return result.ErrorOrNil()
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	for key, value := range configKeys(config) {
		v.Set(key, value)
	}
	v.Set("transfer.connect_timeout", config.Transfer.ConnectTimeout.String())
	v.Set("transfer.timeout", config.Transfer.Timeout.String())

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// TransferTemplate builds the request settings shared by every transfer
// from the configuration. The boolean reports a deprecated resume value.
// Settings changed after LoadConfig, such as command-line overrides, are
// checked again here.
func TransferTemplate(config *domain.Config) (*domain.TransferRequest, bool, error) {
	resume, legacy, err := domain.ParseResumeFrom(config.Transfer.ResumeFrom)
	if err != nil {
		return nil, false, err
	}
	if _, err := sequence.CompileRules(config.Output.Regex); err != nil {
		return nil, false, fmt.Errorf("invalid output rules: %w", err)
	}

	return &domain.TransferRequest{
		Stream: config.Transfer.Stream,
		Output: domain.OutputOptions{
			File:  config.Output.File,
			Name:  config.Output.Name,
			Dir:   config.Output.Dir,
			Regex: append([]string(nil), config.Output.Regex...),
		},
		Overwrite:    config.Transfer.Overwrite,
		SkipTransfer: config.Transfer.SkipTransfer,
		Resume:       resume,
		Exec: domain.ExecOptions{
			Commands:     append([]string(nil), config.Exec.External...),
			EnableStdout: config.Exec.EnableStdout,
			EnableStderr: config.Exec.EnableStderr,
			DumpArgv:     config.Exec.DumpArgv,
		},
	}, legacy, nil
}
