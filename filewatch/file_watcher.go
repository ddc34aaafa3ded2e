package filewatch

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

const (
	// DefaultCoalesceDelay is how long the watcher waits after the last relevant file event before
	// reloading, so that an editor's write-rename-chmod sequence causes one reload.
	DefaultCoalesceDelay = 100 * time.Millisecond

	retryInterval = time.Second
)

// watchedFile is one settings file. Its directory is watched as well as the file itself, because
// editors and config management tools often replace a file by renaming a new one over it.
type watchedFile struct {
	path     string
	dir      string
	realPath string
	watching bool
}

type fileWatcher struct {
	watcher       *fsnotify.Watcher
	loggers       ldlog.Loggers
	reload        func()
	files         []*watchedFile
	coalesceDelay time.Duration
}

// WatchFiles sets up a mechanism for the file settings source to reload its files whenever one of
// them has been modified. It has the signature of filesettings.ReloaderFactory.
//
// Only events on the settings files themselves are considered; other files in the same directories
// are ignored. A file or directory that does not exist yet is checked for again every second.
func WatchFiles(paths []string, loggers ldlog.Loggers, reload func(), closeCh <-chan struct{}) error {
	return watchFiles(paths, loggers, reload, closeCh, DefaultCoalesceDelay)
}

func watchFiles(
	paths []string,
	loggers ldlog.Loggers,
	reload func(),
	closeCh <-chan struct{},
	coalesceDelay time.Duration,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create file watcher: %w", err)
	}
	fw := &fileWatcher{
		watcher:       watcher,
		loggers:       loggers,
		reload:        reload,
		coalesceDelay: coalesceDelay,
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return fmt.Errorf(`invalid settings file path "%s": %w`, p, err)
		}
		fw.files = append(fw.files, &watchedFile{path: abs, dir: filepath.Dir(abs)})
	}
	fw.addMissingWatches()
	go fw.run(closeCh)
	return nil
}

// addMissingWatches tries to watch every file that is not watched yet, and reports whether any new
// watch was added.
func (fw *fileWatcher) addMissingWatches() bool {
	added := false
	for _, f := range fw.files {
		if f.watching {
			continue
		}
		if err := fw.watch(f); err != nil {
			fw.loggers.Debugf("Not yet watching settings file: %s", err)
			continue
		}
		f.watching = true
		added = true
	}
	return added
}

func (fw *fileWatcher) watch(f *watchedFile) error {
	realDir, err := filepath.EvalSymlinks(f.dir)
	if err != nil {
		return fmt.Errorf(`unable to evaluate symlinks for "%s": %w`, f.dir, err)
	}
	if err := fw.watcher.Add(realDir); err != nil {
		return fmt.Errorf(`unable to watch directory "%s": %w`, realDir, err)
	}
	f.realPath = filepath.Join(realDir, filepath.Base(f.path))
	// The file itself may not exist yet; the directory watch reports its creation.
	if target, err := filepath.EvalSymlinks(f.realPath); err == nil && target != f.realPath {
		_ = fw.watcher.Add(target)
		f.realPath = target
	}
	return nil
}

func (fw *fileWatcher) isSettingsFile(name string) bool {
	name = filepath.Clean(name)
	for _, f := range fw.files {
		if name == f.path || (f.realPath != "" && name == f.realPath) {
			return true
		}
	}
	return false
}

func (fw *fileWatcher) rewatch(name string) {
	name = filepath.Clean(name)
	for _, f := range fw.files {
		if f.watching && (name == f.path || name == f.realPath) {
			if err := fw.watch(f); err != nil {
				fw.loggers.Warnf("Unable to re-watch settings file: %s", err)
			}
		}
	}
}

func (fw *fileWatcher) allWatched() bool {
	for _, f := range fw.files {
		if !f.watching {
			return false
		}
	}
	return true
}

func (fw *fileWatcher) run(closeCh <-chan struct{}) {
	defer func() {
		if err := fw.watcher.Close(); err != nil {
			fw.loggers.Errorf("Error closing file watcher: %s", err)
		}
	}()

	// Loading once after the watches are in place means a change made during setup is not missed.
	fw.reload()

	retryTicker := time.NewTicker(retryInterval)
	defer retryTicker.Stop()

	// Each relevant event replaces the pending deadline, so a burst of events causes one reload.
	var reloadCh <-chan time.Time
	scheduleReload := func() {
		reloadCh = time.After(fw.coalesceDelay)
	}

	for {
		select {
		case <-closeCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.isSettingsFile(event.Name) {
				continue
			}
			fw.loggers.Debugf("Settings file changed: %s (%s)", event.Name, event.Op)
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
				// The file may now be a different symlink target.
				fw.rewatch(event.Name)
			}
			scheduleReload()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.loggers.Errorf("File watcher error: %s", err)

		case <-retryTicker.C:
			if !fw.allWatched() && fw.addMissingWatches() {
				scheduleReload()
			}

		case <-reloadCh:
			reloadCh = nil
			fw.reload()
		}
	}
}
