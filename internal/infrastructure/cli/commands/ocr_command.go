package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/helpers"
)

// NewOCRCommand creates the ocr command.
func NewOCRCommand(container *app.Container) *cobra.Command {
	var (
		output   outputFlags
		mode     string
		textFile string
		save     bool
	)

	cmd := &cobra.Command{
		Use:   "ocr <image>...",
		Short: "Read model names from screenshots",
		Long: "Runs OCR on one or more images and prints the model names found, one per line.\n" +
			"With --text, --save or an output flag the names are merged into the record parsed from the text.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			if mode == "" {
				mode = container.Config.Preferences.OCRMode
			}

			var text string
			if textFile != "" {
				read, err := helpers.ReadInput(cmd.InOrStdin(), []string{textFile})
				if err != nil {
					return err
				}
				text = read
			}

			stop := func() {}
			if helpers.IsTerminal(cmd.ErrOrStderr()) {
				spinner := helpers.NewSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Reading %d image(s) with %s", len(args), mode))
				spinner.Start()
				stop = spinner.Stop
				defer stop()
			}
			ctx := cmd.Context()

			if save {
				rec, err := container.Engine.CaptureImage(ctx, text, args, mode)
				stop()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved to history as %d\n", rec.Timestamp)
				return output.emit(cmd, container, rec)
			}

			models, err := container.Engine.ExtractModelsBatch(ctx, args, mode)
			stop()
			if err != nil {
				return err
			}
			if textFile == "" && !output.set() {
				return helpers.WriteOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), "", strings.Join(models, "\n"))
			}
			rec := container.Engine.ParseText(text).WithModels(models)
			return output.emit(cmd, container, rec)
		},
	}

	output.register(cmd)
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "OCR engine: system, ai or gemini (default from config)")
	cmd.Flags().StringVar(&textFile, "text", "", "File (or - for stdin) with credentials to merge the models into")
	cmd.Flags().BoolVarP(&save, "save", "s", false, "Append the merged record to history")
	return cmd
}
