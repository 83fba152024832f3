package emu

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/howeyc/fsnotify"
	"golang.org/x/sync/errgroup"

	"xenium/emu/log"
	"xenium/hw/flash"
	"xenium/hw/xenium"
)

// BankFilename returns the name of the file holding bank b in a dump.
func BankFilename(b xenium.Bank) string {
	return fmt.Sprintf("%02d-%s.bin", uint8(b), b)
}

// DumpBanks extracts each bank into its own file in dir, and returns the
// paths of the written files, ordered by bank. A bank file holds what the
// host reads from address 0 to the bank size with that bank selected, so
// images smaller than the flash show mirrored content, as on the machine.
func DumpBanks(ctx context.Context, fl *flash.Flash, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, DefaultFileMode); err != nil {
		return nil, err
	}

	banks := xenium.Banks()
	paths := make([]string, len(banks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, b := range banks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			win := make([]byte, b.Size())
			if _, err := fl.ReadThrough(b, 0, win); err != nil {
				return fmt.Errorf("bank %s: %w", b, err)
			}
			path := filepath.Join(dir, BankFilename(b))
			if err := os.WriteFile(path, win, 0644); err != nil {
				return err
			}
			log.ModFlash.DebugZ("bank extracted").
				Stringer("bank", b).
				Hex32("base", b.Base()).
				Hex32("size", b.Size()).
				String("path", path).
				End()
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// DumpImage opens the flash image at path and extracts its banks into dir.
func DumpImage(ctx context.Context, image, dir string) ([]string, error) {
	fl, err := flash.Open(image, false)
	if err != nil {
		return nil, err
	}
	defer fl.Close()

	return DumpBanks(ctx, fl, dir)
}

// quiet period after the last change before re-extracting, since tools
// usually write an image in several steps.
const watchDelay = 200 * time.Millisecond

// WatchImage extracts the banks of image into dir, then again each time the
// image changes, until ctx is cancelled. done is called after each
// extraction.
func WatchImage(ctx context.Context, image, dir string, done func([]string, error)) error {
	image = filepath.Clean(image)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(image)); err != nil {
		return err
	}

	run := time.After(0)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-run:
			done(DumpImage(ctx, image, dir))
		case ev := <-watcher.Event:
			if filepath.Clean(ev.Name) == image && !ev.IsAttrib() && !ev.IsDelete() {
				run = time.After(watchDelay)
			}
		case err := <-watcher.Error:
			log.ModFlash.WarnZ("watcher error").Error("err", err).End()
		}
	}
}
