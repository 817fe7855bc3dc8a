package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/justworkflowit/workflow-deployer/internal/app"
	"github.com/justworkflowit/workflow-deployer/internal/config"
	"github.com/justworkflowit/workflow-deployer/internal/secrets"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error, including a failed deployment.
	ExitCodeError = 1
	// ExitCodeConfig indicates invalid configuration.
	ExitCodeConfig = 2
	// ExitCodeCredential indicates the registry credential could not be resolved.
	ExitCodeCredential = 3
)

var (
	rootConfigFile string
	rootTrace      bool

	// loader is shared so that persistent flags bind to configuration keys.
	loader = config.NewLoader()

	// appOptions replace default collaborators in tests.
	appOptions []app.ServiceOption
)

// rootCmd represents the base command for the workflow deployer.
var rootCmd = &cobra.Command{
	Use:   "workflow-deployer",
	Short: "Deploy workflow definitions to the JustWorkflowIt registry",
	Long: `workflow-deployer reads workflow definitions from object storage and makes
each one the live version of its workflow in the JustWorkflowIt registry.

It runs once per lifecycle request (handle) or as a long-running HTTP
service (serve). Configuration comes from an optional YAML file (--config)
and DEPLOYER_* environment variables.`,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "workflow-deployer version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	var validationErr *config.ValidationError
	if errors.As(err, &validationErr) {
		return ExitCodeConfig
	}

	var secretErr *secrets.SecretUnavailableError
	if errors.As(err, &secretErr) {
		return ExitCodeCredential
	}

	return ExitCodeError
}

func initLogging(cmd *cobra.Command, _ []string) error {
	v := loader.Viper()
	level, err := logging.ParseLevel(v.GetString(config.KeyLogLevel))
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(v.GetString(config.KeyLogFormat))
	if err != nil {
		return err
	}
	// Logs go to stderr; stdout carries command output.
	logging.Init(level, format, cmd.ErrOrStderr())
	return nil
}

func newApplication() (*app.Application, error) {
	cfg := app.NewConfig(rootConfigFile, rootTrace)
	cfg.Loader = loader
	cfg.Version = GetVersion()

	application, err := app.NewApplication(cfg, appOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigFile, "config", "", "Configuration file (YAML)")
	flags.String("log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error (env: DEPLOYER_LOG_LEVEL)")
	flags.String("log-format", config.DefaultLogFormat, "Log format: text or json (env: DEPLOYER_LOG_FORMAT)")
	flags.BoolVar(&rootTrace, "trace", false, "Write reconciliation traces to stderr")

	_ = loader.Viper().BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))
	_ = loader.Viper().BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))

	rootCmd.AddCommand(newVersionCmd())
}
