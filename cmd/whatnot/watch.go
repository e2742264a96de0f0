package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// watchDebounce groups the burst of events an editor save produces.
const watchDebounce = 100 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file.what>",
		Short: "Re-render a model every time it is saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bindFlags(cmd.Flags(), renderFlagKeys)
			return a.watch(cmd.Context(), args[0])
		},
	}
	addRenderFlags(cmd)
	return cmd
}

// watch renders path once, then again after every change until ctx ends.
// The directory is watched rather than the file so that editors which
// save by replacing the file keep triggering rebuilds.
func (a *app) watch(ctx context.Context, path string) error {
	cfg, err := a.renderConfig()
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	build := func() {
		log := a.logger.With("run", uuid.NewString(), "file", path)
		rep, err := a.compileFile(ctx, path, cfg, log)
		if rep != nil {
			a.printReport(rep)
		}
		if err != nil {
			log.Error("render failed", "err", err)
			fmt.Fprintf(a.errOut, "%s: %v\n", path, err)
		}
	}
	build()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if affects(ev, abs) {
				a.logger.Debug("change detected", "op", ev.Op.String(), "file", ev.Name)
				timer.Reset(watchDebounce)
			}
		case <-timer.C:
			build()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", "err", err)
		}
	}
}

// affects reports whether ev changed the file at path.
func affects(ev fsnotify.Event, path string) bool {
	return filepath.Clean(ev.Name) == path &&
		ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename)
}
