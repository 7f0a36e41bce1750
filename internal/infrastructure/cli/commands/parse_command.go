package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/helpers"
)

// NewParseCommand creates the parse command.
func NewParseCommand(container *app.Container) *cobra.Command {
	var (
		output  outputFlags
		analyze bool
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Extract credentials from text and print them formatted",
		Long:  "Reads text from a file or stdin, infers vendor, base URL, API key and models, and prints the record in the chosen format.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			text, err := helpers.ReadInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			if analyze {
				helpers.RenderAnalysis(cmd.OutOrStdout(), container.Engine.AnalyzeText(text))
				return nil
			}

			var rec domain.Record
			if save {
				rec, err = container.Engine.CaptureText(text)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved to history as %d\n", rec.Timestamp)
			} else {
				rec = container.Engine.ParseText(text)
			}
			return output.emit(cmd, container, rec)
		},
	}

	output.register(cmd)
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Show every URL and key candidate with its score")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "Append the parsed record to history")
	return cmd
}
