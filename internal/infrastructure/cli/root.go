package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// annotationNoContainer marks commands that run without loading config.
const annotationNoContainer = "formatapi/no-container"

// NewRootCmd wires the cobra root command. The container is built once the
// persistent flags are parsed, so --config and --debug apply to every command.
func NewRootCmd(ctx context.Context, opts Options) *cobra.Command {
	container := &app.Container{}
	built := false

	root := &cobra.Command{
		Use:   "formatapi",
		Short: "Extract API credentials from text and format them",
		Long: "formatapi parses pasted text or screenshots holding API credentials and model lists,\n" +
			"and renders them as env, JSON, YAML, TOML or a custom template.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[annotationNoContainer] == "true" {
				return nil
			}
			c, err := app.BuildContainer(ctx, app.Options{ConfigPath: opts.ConfigPath, Verbose: opts.Verbose})
			if err != nil {
				return err
			}
			*container = *c
			built = true
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !built {
				return nil
			}
			return container.Close()
		},
	}

	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Config file (default ~/.formatapi/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.Verbose, "debug", opts.Verbose, "Enable verbose logging")

	version := commands.NewVersionCommand()
	version.Annotations = map[string]string{annotationNoContainer: "true"}
	vendors := commands.NewVendorsCommand()
	vendors.Annotations = map[string]string{annotationNoContainer: "true"}

	root.AddCommand(
		commands.NewParseCommand(container),
		commands.NewFormatCommand(container),
		commands.NewOCRCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewTemplateCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewCacheCommand(container),
		commands.NewServeCommand(container),
		vendors,
		version,
	)
	return root
}
