package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"planar/internal/cache"
	appErrors "planar/internal/errors"

	"github.com/spf13/pflag"
)

const (
	cacheUsage        = "planar cache list | planar cache prune [--older-than 720h]"
	defaultPruneAfter = 30 * 24 * time.Hour
)

func runCache(ctx context.Context, e env, args []string) error {
	flagSet := pflag.NewFlagSet("cache", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	olderThan := flagSet.Duration("older-than", defaultPruneAfter, "prune snapshots saved before this long ago")
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printCommandHelp(e.stderr, cacheUsage, flagSet)
			return nil
		}
		return appErrors.New(appErrors.CodeValidation, err.Error(), err)
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printCommandHelp(e.stderr, cacheUsage, flagSet)
		return nil
	}

	s, err := loadSettings(false)
	if err != nil {
		return err
	}
	path := s.cachePath
	if path == "" {
		if path, err = cache.DefaultPath(); err != nil {
			return err
		}
	}
	c, err := cache.Open(ctx, path)
	if err != nil {
		return err
	}
	defer c.Close()

	switch flagSet.Arg(0) {
	case "list":
		return listCache(ctx, e.stdout, c, e.now())
	case "prune":
		if *olderThan < 0 {
			return appErrors.New(appErrors.CodeValidation, "--older-than must not be negative", nil)
		}
		n, err := c.Prune(ctx, e.now().Add(-*olderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Pruned %d cached view(s).\n", n)
		return nil
	default:
		return appErrors.New(appErrors.CodeValidation, fmt.Sprintf("unknown cache command %q", flagSet.Arg(0)), nil)
	}
}

func listCache(ctx context.Context, w io.Writer, c *cache.Cache, now time.Time) error {
	keys, err := c.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "No cached views.")
		return nil
	}
	for _, key := range keys {
		entry, err := c.Load(ctx, key)
		if err != nil {
			fmt.Fprintf(w, "%s  (unreadable: %v)\n", key, err)
			continue
		}
		age := now.Sub(entry.SavedAt).Truncate(time.Second)
		fmt.Fprintf(w, "%s  %d issues  saved %s ago\n", key, len(entry.Snapshot.Issues), age)
	}
	return nil
}
