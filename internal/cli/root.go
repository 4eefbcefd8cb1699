// Package cli implements the hypostasis command line.
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/NiceneNerd/hypostasis/internal/config"
	"github.com/NiceneNerd/hypostasis/internal/logging"
	"github.com/NiceneNerd/hypostasis/internal/ui"
	"github.com/NiceneNerd/hypostasis/internal/version"
)

// flagKeys maps command-line flags onto configuration keys. Flags listed in
// pathFlags are made absolute relative to the working directory.
var (
	flagKeys = map[string]string{
		"refs":        "remap.reference_hashes",
		"workers":     "remap.workers",
		"backup-ext":  "remap.backup_ext",
		"pattern":     "remap.pattern",
		"force":       "remap.force",
		"dry-run":     "remap.dry_run",
		"keep-own-id": "remap.keep_own_id",
		"ledger":      "ledger.path",
		"log-file":    "log.file",
		"format":      "output.format",
	}
	pathFlags = map[string]bool{"refs": true, "ledger": true, "log-file": true}
)

// app holds state shared by the commands of one invocation.
type app struct {
	base       config.LoadOptions
	verbosity  int
	configFile string

	cfg      *config.Config
	closeLog func() error
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.LoadOptions{})
}

func newRootCmd(base config.LoadOptions) *cobra.Command {
	a := &app{base: base}

	rootCmd := &cobra.Command{
		Use:     "hypostasis",
		Short:   MsgRootShort,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			project := ""
			if cmd.Annotations["project"] == "true" && len(args) > 0 {
				project = args[0]
			}
			if err := a.load(cmd, project); err != nil {
				return err
			}
			log.Debug().Str("command", cmd.Name()).Msg(MsgCommandStarted)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().String("format", "", MsgFlagFormat)
	rootCmd.PersistentFlags().String("ledger", "", MsgFlagLedger)
	rootCmd.PersistentFlags().String("log-file", "", MsgFlagLogFile)

	rootCmd.AddCommand(newRemapCmd(a))
	rootCmd.AddCommand(newRestoreCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// load merges the configuration for project and the flags set on cmd, then
// sets up logging.
func (a *app) load(cmd *cobra.Command, project string) error {
	opts := a.base
	opts.ConfigFile = a.configFile
	if project != "" {
		abs, err := filepath.Abs(project)
		if err != nil {
			return err
		}
		opts.ProjectDir = abs
	}

	flags, err := flagOverrides(cmd.Flags())
	if err != nil {
		return err
	}
	opts.Flags = flags

	cfg, err := config.Load(opts)
	if err != nil {
		return fmt.Errorf(MsgErrLoadConfig, err)
	}
	a.cfg = cfg
	a.closeLog = logging.Setup(logging.Options{
		Verbosity: a.verbosity,
		File:      cfg.Log.File,
		Console:   cmd.ErrOrStderr(),
	})
	return nil
}

func flagOverrides(fs *pflag.FlagSet) (map[string]any, error) {
	flags := make(map[string]any)
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "no-ledger" {
			flags["ledger.enabled"] = f.Value.String() != "true"
			return
		}
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		value := f.Value.String()
		if pathFlags[f.Name] && value != "" && value != "-" {
			abs, absErr := filepath.Abs(value)
			if absErr != nil {
				err = absErr
				return
			}
			value = abs
		}
		flags[key] = value
	})
	return flags, err
}

func (a *app) renderer(cmd *cobra.Command, opts ui.Options) (ui.Renderer, error) {
	format, err := ui.ParseFormat(a.cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	return ui.NewRenderer(format, cmd.OutOrStdout(), opts)
}
