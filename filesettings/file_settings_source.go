package filesettings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"gopkg.in/ghodss/yaml.v1"

	"github.com/relaytics/analytics-go/subsystems"
)

type fileSettingsSource struct {
	sink                  subsystems.SettingsSink
	absFilePaths          []string
	duplicateKeysHandling DuplicateKeysHandling
	reloaderFactory       ReloaderFactory
	loggers               ldlog.Loggers
	isInitialized         bool
	readyCh               chan<- struct{}
	readyOnce             sync.Once
	reloadLock            sync.Mutex
	closeOnce             sync.Once
	closeReloaderCh       chan struct{}
}

func newFileSettingsSource(
	context subsystems.ClientContext,
	filePaths []string,
	duplicateKeysHandling DuplicateKeysHandling,
	reloaderFactory ReloaderFactory,
) (subsystems.SettingsSource, error) {
	abs, err := absFilePaths(filePaths)
	if err != nil {
		return nil, err
	}

	fs := &fileSettingsSource{
		sink:                  context.GetSettingsSink(),
		absFilePaths:          abs,
		duplicateKeysHandling: duplicateKeysHandling,
		reloaderFactory:       reloaderFactory,
		loggers:               context.GetLogging().Loggers,
	}
	fs.loggers.SetPrefix("FileSettings:")
	return fs, nil
}

func (fs *fileSettingsSource) IsInitialized() bool {
	fs.reloadLock.Lock()
	defer fs.reloadLock.Unlock()
	return fs.isInitialized
}

func (fs *fileSettingsSource) Start(closeWhenReady chan<- struct{}) {
	fs.readyCh = closeWhenReady
	fs.reload()

	// If there is no reloader, then we signal readiness immediately regardless of whether the
	// load succeeded or failed.
	if fs.reloaderFactory == nil {
		fs.signalStartComplete()
		return
	}

	// If there is a reloader, and if we haven't yet successfully loaded settings, then the
	// readiness signal will happen the first time we do get valid settings (in reload).
	fs.closeReloaderCh = make(chan struct{})
	err := fs.reloaderFactory(fs.absFilePaths, fs.loggers, fs.reload, fs.closeReloaderCh)
	if err != nil {
		fs.loggers.Errorf("Unable to start reloader: %s", err)
	}
}

func (fs *fileSettingsSource) Refresh() {
	fs.reload()
}

// reload rereads all of the configured files and delivers their combined integrations. If any file
// cannot be loaded or parsed, nothing is delivered.
func (fs *fileSettingsSource) reload() {
	fs.reloadLock.Lock()
	defer fs.reloadLock.Unlock()

	filesData := make([]fileData, 0, len(fs.absFilePaths))
	for _, path := range fs.absFilePaths {
		data, err := readFile(path)
		if err != nil {
			fs.loggers.Errorf("Unable to load settings: %s [%s]", err, path)
			return
		}
		filesData = append(filesData, data)
	}
	integrations, err := mergeFileData(fs.duplicateKeysHandling, filesData...)
	if err != nil {
		fs.loggers.Error(err)
		return
	}
	fs.sink.UpdateSettings(integrations)
	fs.isInitialized = true
	fs.loggers.Debugf("Loaded settings for %d integrations", integrations.Count())
	fs.signalStartComplete()
}

func (fs *fileSettingsSource) signalStartComplete() {
	fs.readyOnce.Do(func() {
		if fs.readyCh != nil {
			close(fs.readyCh)
		}
	})
}

func absFilePaths(paths []string) ([]string, error) {
	absPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("unable to determine absolute path for '%s'", p)
		}
		absPaths = append(absPaths, absPath)
	}
	return absPaths, nil
}

type fileData struct {
	integrations map[string]ldvalue.Value
}

func readFile(path string) (fileData, error) {
	rawData, err := os.ReadFile(path) //nolint:gosec // G304: ok to read file into variable
	if err != nil {
		return fileData{}, fmt.Errorf("unable to read file: %s", err)
	}
	jsonData := rawData
	if !detectJSON(rawData) {
		if jsonData, err = yaml.YAMLToJSON(rawData); err != nil {
			return fileData{}, fmt.Errorf("error parsing file: %s", err)
		}
	}
	integrations, err := parseIntegrations(jsonData)
	if err != nil {
		return fileData{}, fmt.Errorf("error parsing file: %s", err)
	}
	return fileData{integrations: integrations}, nil
}

func detectJSON(rawData []byte) bool {
	// A valid JSON file for our purposes must be an object, i.e. it must start with '{'
	return strings.HasPrefix(strings.TrimLeftFunc(string(rawData), unicode.IsSpace), "{")
}

func parseIntegrations(jsonData []byte) (map[string]ldvalue.Value, error) {
	var integrations map[string]ldvalue.Value
	r := jreader.NewReader(jsonData)
	for obj := r.Object(); obj.Next(); {
		if string(obj.Name()) != "integrations" {
			_ = r.SkipValue()
			continue
		}
		var v ldvalue.Value
		v.ReadFromJSONReader(&r)
		switch v.Type() {
		case ldvalue.NullType:
		case ldvalue.ObjectType:
			integrations = v.AsValueMap().AsMap()
		default:
			return nil, fmt.Errorf(`"integrations" must be an object, not %s`, v.Type())
		}
	}
	if err := r.Error(); err != nil {
		return nil, err
	}
	return integrations, nil
}

func mergeFileData(duplicateKeysHandling DuplicateKeysHandling, allFileData ...fileData) (ldvalue.Value, error) {
	all := make(map[string]ldvalue.Value)
	for _, d := range allFileData {
		keys := make([]string, 0, len(d.integrations))
		for key := range d.integrations {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if _, exists := all[key]; exists {
				if duplicateKeysHandling == DuplicateKeysIgnoreAllButFirst {
					continue
				}
				return ldvalue.Null(), fmt.Errorf("integration '%s' is specified by multiple files", key)
			}
			all[key] = d.integrations[key]
		}
	}
	return ldvalue.CopyObject(all), nil
}

// Close is called automatically when the client is closed.
func (fs *fileSettingsSource) Close() (err error) {
	fs.closeOnce.Do(func() {
		if fs.closeReloaderCh != nil {
			close(fs.closeReloaderCh)
		}
	})
	return nil
}
