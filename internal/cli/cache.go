package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/warndiff/internal/cache"
	"github.com/dshills/warndiff/internal/config"
)

var flagCacheJSON bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the diagnostics cache",
}

// openCache opens the configured cache directory. Maintenance commands work
// on the directory even when caching is disabled for comparisons.
func openCache() (*cache.Cache, config.Config, error) {
	cfg, err := config.Load(flagConfig, nil)
	if err != nil {
		return nil, config.Config{}, err
	}
	c, err := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("opening cache: %w", err)
	}
	return c, cfg, nil
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached diagnostics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache()
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%s).\n", c.Dir())
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired and corrupt cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := openCache()
		if err != nil {
			return err
		}
		n, err := c.Prune()
		if err != nil {
			return fmt.Errorf("pruning cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries.\n", n)
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := openCache()
		if err != nil {
			return err
		}
		stats, err := c.GetStats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}

		out := cmd.OutOrStdout()
		if flagCacheJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		state := "enabled"
		if !cfg.Cache.Enabled {
			state = "disabled"
		}
		_, err = fmt.Fprintf(out, "Cache:    %s\nDir:      %s\nTTL:      %ds\nEntries:  %d (%d bytes)\nExpired:  %d\nCorrupt:  %d\n",
			state, stats.Dir, cfg.Cache.TTLSeconds, stats.Entries, stats.TotalBytes, stats.Expired, stats.Corrupt)
		return err
	},
}

func init() {
	cacheShowCmd.Flags().BoolVar(&flagCacheJSON, "json", false, "Print statistics as JSON")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}
