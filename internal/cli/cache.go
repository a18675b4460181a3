package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemalayout/pkg/cache"
)

// cacheCommand creates the cache management command. It manages the file
// cache only; Redis entries expire on their own.
func (c *CLI) cacheCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local layout cache",
	}
	cmd.PersistentFlags().StringVar(&dir, "cache-dir", "", "cache directory (default: user cache dir, or $"+envCacheDir+")")

	open := func() (*cache.FileCache, error) {
		path, err := cacheDir(dir)
		if err != nil {
			return nil, fmt.Errorf("get cache dir: %w", err)
		}
		return cache.NewFileCache(path)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show the cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := open()
			if err != nil {
				return err
			}
			entries, size, err := fc.Stats()
			if err != nil {
				return err
			}
			printKeyValue("Directory", fc.Dir())
			printKeyValue("Entries", strconv.Itoa(entries))
			printKeyValue("Size", formatBytes(size))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := open()
			if err != nil {
				return err
			}
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			printSuccess("Pruned %d entries", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := open()
			if err != nil {
				return err
			}
			entries, _, _ := fc.Stats()
			if err := fc.Clear(); err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", entries)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cacheDir(dir)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(c.out, path)
			return nil
		},
	})

	return cmd
}

// formatBytes renders n with a binary unit, for example "1.5 KiB".
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
