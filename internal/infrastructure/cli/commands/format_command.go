package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/extract"
	"github.com/doeshing/formatapi/internal/infrastructure/formatter"
)

// NewFormatCommand creates the format command.
func NewFormatCommand(container *app.Container) *cobra.Command {
	var (
		output      outputFlags
		vendor      string
		baseURL     string
		apiKey      string
		models      []string
		fromHistory int64
		input       string
	)

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Render a record given by flags, a history entry or another formatted file",
		Example: "  formatapi format --base-url https://api.openai.com/v1 --api-key sk-... --models gpt-4o -f json\n" +
			"  formatapi format --from-history 1718000000000 -f toml\n" +
			"  formatapi format --input creds.env -o creds.yaml",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}

			var rec domain.Record
			switch {
			case fromHistory != 0:
				item, err := container.Engine.HistoryItem(fromHistory)
				if err != nil {
					return err
				}
				rec = item
			case input != "":
				decoded, err := decodeFile(input)
				if err != nil {
					return err
				}
				rec = decoded
			}

			flags := cmd.Flags()
			if flags.Changed("base-url") {
				rec.BaseURL = baseURL
			}
			if flags.Changed("api-key") {
				rec.APIKey = apiKey
			}
			if flags.Changed("models") {
				rec.Models = models
			}
			switch {
			case flags.Changed("vendor"):
				rec.Vendor = vendor
			case rec.Vendor == "" || rec.Vendor == domain.VendorCustom:
				rec.Vendor = extract.DetectVendor(rec.BaseURL, rec.APIKey)
			}
			return output.emit(cmd, container, rec)
		},
	}

	output.register(cmd)
	cmd.Flags().StringVar(&vendor, "vendor", "", "Vendor tag (detected from URL and key when omitted)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key")
	cmd.Flags().StringSliceVar(&models, "models", nil, "Comma-separated model names")
	cmd.Flags().Int64Var(&fromHistory, "from-history", 0, "Start from the history entry with this id")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Start from an env/json/yaml/toml file")
	cmd.MarkFlagsMutuallyExclusive("from-history", "input")
	return cmd
}

func decodeFile(path string) (domain.Record, error) {
	f, ok := formatFromPath(path)
	if !ok {
		return domain.Record{}, &domain.FormatError{FormatType: path, Reason: "cannot infer format from file extension"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Record{}, fmt.Errorf("read %s: %w", path, err)
	}
	return formatter.Decode(data, f)
}
