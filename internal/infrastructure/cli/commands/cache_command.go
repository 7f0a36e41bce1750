package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/formatapi/internal/app"
	"github.com/doeshing/formatapi/internal/infrastructure/cache"
	"github.com/doeshing/formatapi/internal/infrastructure/cli/helpers"
)

const (
	msgNoCachedResults  = "No cached OCR results."
	errCacheUnavailable = "ocr cache unavailable"
)

// NewCacheCommand creates the cache command with all subcommands
func NewCacheCommand(container *app.Container) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached OCR results",
	}

	cacheCmd.AddCommand(
		newCacheListCommand(container),
		newCacheClearCommand(container),
		newCacheSizeCommand(container),
	)

	return cacheCmd
}

// newCacheListCommand creates the 'cache list' subcommand
func newCacheListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached OCR results",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ocrCache(container)
			if err != nil {
				return err
			}
			return listCacheEntries(cmd.OutOrStdout(), store)
		},
	}
}

// newCacheClearCommand creates the 'cache clear' subcommand
func newCacheClearCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached OCR result",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ocrCache(container)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		},
	}
}

// newCacheSizeCommand creates the 'cache size' subcommand
func newCacheSizeCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Show cache size",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ocrCache(container)
			if err != nil {
				return err
			}
			size, err := store.Size()
			if err != nil {
				return fmt.Errorf("failed to calculate cache size: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache directory: %s\nSize: %d bytes\n", store.Dir(), size)
			return nil
		},
	}
}

func ocrCache(container *app.Container) (*cache.FileCache, error) {
	if container.OCRCache == nil {
		return nil, errors.New(errCacheUnavailable)
	}
	return container.OCRCache, nil
}

// listCacheEntries prints one line per cached result
func listCacheEntries(out io.Writer, store *cache.FileCache) error {
	entries, err := store.Entries()
	if err != nil {
		return fmt.Errorf("failed to retrieve cache entries: %w", err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, msgNoCachedResults)
		return nil
	}
	for _, entry := range entries {
		fmt.Fprintf(out, "%s | %s | %s | %s | %s\n",
			entry.Key[:min(12, len(entry.Key))],
			entry.CreatedAt.Format(helpers.TimeLayout),
			entry.Mode,
			entry.Path,
			strings.Join(entry.Models, ", "))
	}
	return nil
}
