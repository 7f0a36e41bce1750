package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/helpers"
)

// NewTemplateCommand creates the template command with all subcommands
func NewTemplateCommand(container *app.Container) *cobra.Command {
	templateCmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"templates"},
		Short:   "Manage custom output templates",
		Long: "Templates are plain text with {{api_key}}, {{base_url}}, {{models}}, {{models_comma}},\n" +
			"{{vendor}} and {{model}} placeholders.",
	}

	templateCmd.AddCommand(
		newTemplateListCommand(container),
		newTemplateShowCommand(container),
		newTemplateAddCommand(container),
		newTemplateDeleteCommand(container),
		newTemplateGeneralizeCommand(container),
		newTemplateApplyCommand(container),
	)

	return templateCmd
}

func newTemplateListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			templates, err := container.Engine.LoadTemplates()
			if err != nil && !warnCorrupt(cmd, err) {
				return err
			}
			if len(templates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoTemplates)
				return nil
			}
			helpers.RenderTemplates(cmd.OutOrStdout(), templates)
			return nil
		},
	}
}

func newTemplateShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a template's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			tpl, err := container.Engine.Template(args[0])
			if err != nil {
				return err
			}
			return helpers.WriteOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), "", tpl.Content)
		},
	}
}

func newTemplateAddCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> [file|-]",
		Short: "Save a template, replacing one with the same name",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			content, err := helpers.ReadInput(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			return addTemplate(cmd, container, args[0], content)
		},
	}
}

func newTemplateDeleteCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			if err := container.Engine.DeleteTemplate(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted template %q\n", args[0])
			return nil
		},
	}
}

func newTemplateGeneralizeCommand(container *app.Container) *cobra.Command {
	var saveAs string

	cmd := &cobra.Command{
		Use:   "generalize [file|-]",
		Short: "Turn a concrete config example into a template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			example, err := helpers.ReadInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			tpl := container.Engine.GeneralizeTemplate(example)
			if saveAs != "" {
				return addTemplate(cmd, container, saveAs, tpl)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tpl)
			return err
		},
	}

	cmd.Flags().StringVar(&saveAs, "save", "", "Save the result under this name instead of printing it")
	return cmd
}

func newTemplateApplyCommand(container *app.Container) *cobra.Command {
	var (
		fromHistory int64
		out         string
	)

	cmd := &cobra.Command{
		Use:   "apply <name> [file|-]",
		Short: "Render a saved template with a history entry or parsed text",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireEngine(container); err != nil {
				return err
			}
			var rec domain.Record
			if fromHistory != 0 {
				item, err := container.Engine.HistoryItem(fromHistory)
				if err != nil {
					return err
				}
				rec = item
			} else {
				text, err := helpers.ReadInput(cmd.InOrStdin(), args[1:])
				if err != nil {
					return err
				}
				rec = container.Engine.ParseText(text)
			}
			output := outputFlags{templateName: args[0], out: out}
			return output.emit(cmd, container, rec)
		},
	}

	cmd.Flags().Int64Var(&fromHistory, "from-history", 0, "Use the history entry with this id")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write output to a file instead of stdout")
	return cmd
}

func addTemplate(cmd *cobra.Command, container *app.Container, name, content string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New(ErrTemplateNameRequired)
	}
	if err := container.Engine.AddTemplate(domain.CustomTemplate{Name: name, Content: content}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved template %q\n", strings.TrimSpace(name))
	return nil
}
