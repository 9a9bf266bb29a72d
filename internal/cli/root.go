package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/internal/ui"
	"github.com/stackgen/stackgen/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "stackgen",
	Short: "Scaffold full-stack TypeScript projects",
	Long: `stackgen generates a ready-to-run TypeScript project from a set of stack
choices: database, ORM, backend, frontends, auth and addons.

Each choice is handled by a plugin that deploys its templates and
contributes dependencies to package.json. After generation the project
can be put under git, have its dependencies installed and its database
bootstrapped.`,
	Version:       version.Get().Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute initializes dependencies and runs the root command.
func Execute() error {
	InitDependencies()
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("stackgen %s\n", version.Get().Version))

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Configuration file (default: ./stackgen.yaml when present)")
	pf.BoolP("verbose", "v", false, "Write debug logs to stderr")
	pf.String("log-format", "", "Log format: text or json")
	pf.Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// prepare loads the configuration for the working directory and applies
// the persistent flags to the dependencies.
func prepare(cmd *cobra.Command) (*Dependencies, error) {
	d := GetDeps()
	if d == nil {
		return nil, fmt.Errorf("dependencies not initialized")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	if err := d.EnsureConfig(cwd, getStringFlag(cmd, "config")); err != nil {
		return nil, err
	}
	d.ConfigureLogging(cmd.ErrOrStderr(), getBoolFlag(cmd, "verbose"), getStringFlag(cmd, "log-format"))
	if getBoolFlag(cmd, "no-color") || d.Theme == nil {
		d.Theme = ui.NewTheme(getBoolFlag(cmd, "no-color"))
	}
	if d.Headless == nil {
		d.Headless = ui.NewHeadlessManager()
	}
	return d, nil
}

// getStringFlag retrieves a string flag value from the command.
func getStringFlag(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return val
}

// getBoolFlag retrieves a bool flag value from the command.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return val
}

// getStringSliceFlag retrieves a string slice flag value from the command.
func getStringSliceFlag(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		return nil
	}
	return val
}
