package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/application/engine"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/helpers"
	"github.com/doeshing/formatapi/internal/infrastructure/formatter"
)

// outputFlags are shared by every command that prints a formatted record.
type outputFlags struct {
	format       string
	templateName string
	templateFile string
	out          string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format: env, json, yaml, toml (default from config or --out extension)")
	cmd.Flags().StringVarP(&f.templateName, "template", "t", "", "Render with a saved custom template")
	cmd.Flags().StringVar(&f.templateFile, "template-file", "", "Render with the custom template in this file")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Write output to a file instead of stdout")
}

// set reports whether any output flag was given.
func (f *outputFlags) set() bool {
	return f.format != "" || f.templateName != "" || f.templateFile != "" || f.out != ""
}

// request resolves the flags into a format request for rec.
func (f *outputFlags) request(container *app.Container, rec domain.Record) (engine.FormatRequest, error) {
	req := engine.FormatRequest{
		Vendor:     rec.Vendor,
		BaseURL:    rec.BaseURL,
		APIKey:     rec.APIKey,
		Models:     rec.Models,
		FormatType: f.format,
	}
	switch {
	case f.templateName != "":
		tpl, err := container.Engine.Template(f.templateName)
		if err != nil {
			return req, err
		}
		req.FormatType = string(formatter.FormatCustom)
		req.CustomTemplate = tpl.Content
	case f.templateFile != "":
		data, err := os.ReadFile(f.templateFile)
		if err != nil {
			return req, fmt.Errorf("read template: %w", err)
		}
		req.FormatType = string(formatter.FormatCustom)
		req.CustomTemplate = string(data)
	}
	if req.FormatType == "" {
		if byExt, ok := formatFromPath(f.out); ok {
			req.FormatType = string(byExt)
		} else {
			req.FormatType = container.Config.Preferences.OutputFormat
		}
	}
	return req, nil
}

// emit renders rec and writes it to stdout or --out.
func (f *outputFlags) emit(cmd *cobra.Command, container *app.Container, rec domain.Record) error {
	req, err := f.request(container, rec)
	if err != nil {
		return err
	}
	output, err := container.Engine.FormatOutput(req)
	if err != nil {
		return err
	}
	return helpers.WriteOutput(cmd.OutOrStdout(), cmd.ErrOrStderr(), f.out, output)
}

// formatFromPath infers a built-in format from a file extension.
func formatFromPath(path string) (formatter.Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	if ext == ".yml" {
		return formatter.FormatYAML, true
	}
	for _, f := range formatter.Formats {
		if formatter.Extension(f) == ext {
			return f, true
		}
	}
	return "", false
}

func requireEngine(container *app.Container) error {
	if container.Engine == nil {
		return errors.New(ErrEngineUnavailable)
	}
	return nil
}

func parseHistoryID(arg string) (int64, error) {
	ts, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf(ErrInvalidHistoryID, arg)
	}
	return ts, nil
}

// warnCorrupt prints a corrupt-store warning and reports whether err was one.
func warnCorrupt(cmd *cobra.Command, err error) bool {
	if errors.Is(err, domain.ErrCorruptStore) {
		fmt.Fprintf(cmd.ErrOrStderr(), MsgCorruptStore, err)
		return true
	}
	return false
}
