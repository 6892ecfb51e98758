package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/hilal/internal/cache"
	"github.com/ppiankov/hilal/internal/model"
	"github.com/ppiankov/hilal/internal/pipeline"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the fetched page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached page from all cache tiers",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cacheEvictCmd = &cobra.Command{
	Use:   "evict <doc-id>...",
	Short: "Remove cached pages for the given documents",
	Long: `Evict drops the cached copy of each document so the next remote run
fetches it again.

Example:
  hilal cache evict 1438SHW 1440RMD`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCacheEvict,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheEvictCmd)
}

func openCache(cmd *cobra.Command) (*session, cache.Cache, func() error, error) {
	s, err := newSession(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	c, closeFn, err := cache.New(s.cfg.Cache)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open cache: %w", err)
	}
	return s, c, closeFn, nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	s, c, closeFn, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	if err := c.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Cache cleared: %s\n", s.cfg.Cache.Dir)
	return nil
}

func runCacheEvict(cmd *cobra.Command, args []string) error {
	keys := make([]model.DocumentKey, 0, len(args))
	for _, id := range args {
		key, ok := model.ParseDocumentID(id)
		if !ok {
			return fmt.Errorf("invalid document id %q", id)
		}
		keys = append(keys, key)
	}

	s, c, closeFn, err := openCache(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	for _, key := range keys {
		pageURL := pipeline.PageURL(s.cfg.Source.BaseURL, key)
		if err := c.Delete(cache.CacheKey(pageURL)); err != nil {
			return fmt.Errorf("evict %s: %w", key.ID(), err)
		}
		fmt.Fprintf(os.Stderr, "✓ Evicted %s (%s)\n", key.ID(), pageURL)
	}
	return nil
}
