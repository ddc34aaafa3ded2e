package filesettings

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/internal/sharedtest"
	"github.com/relaytics/analytics-go/subsystems"

	th "github.com/launchdarkly/go-test-helpers/v3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileSourceTestParams struct {
	source         subsystems.SettingsSource
	sink           *sharedtest.CapturingSettingsSink
	mockLog        *ldlogtest.MockLog
	closeWhenReady chan struct{}
}

func (p fileSourceTestParams) waitForStart() {
	p.source.Start(p.closeWhenReady)
	<-p.closeWhenReady
}

func withFileSourceTestParams(
	configurer subsystems.ComponentConfigurer[subsystems.SettingsSource],
	action func(fileSourceTestParams),
) {
	mockLog := ldlogtest.NewMockLog()
	sink := sharedtest.NewCapturingSettingsSink()
	testContext := sharedtest.NewTestContext("", nil, &interfaces.LoggingConfiguration{Loggers: mockLog.Loggers})
	testContext.SettingsSink = sink
	source, err := configurer.Build(testContext)
	if err != nil {
		panic(err)
	}
	defer source.Close()
	action(fileSourceTestParams{source, sink, mockLog, make(chan struct{})})
}

func TestFileSourceYaml(t *testing.T) {
	fileData := `
---
integrations:
  Mixpanel:
    token: abc
  Amplitude:
    apiKey: def
    trackAllPages: true
`
	sharedtest.WithTempFileContaining([]byte(fileData), func(filename string) {
		withFileSourceTestParams(DataSource().FilePaths(filename), func(p fileSourceTestParams) {
			p.waitForStart()
			require.True(t, p.source.IsInitialized())

			doc := th.RequireValue(t, p.sink.DocsCh(), time.Second)
			assert.Equal(t, ldvalue.String("abc"), doc.GetByKey("Mixpanel").GetByKey("token"))
			assert.Equal(t, ldvalue.Bool(true), doc.GetByKey("Amplitude").GetByKey("trackAllPages"))
		})
	})
}

func TestFileSourceJSON(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Mixpanel": {"token": "abc"}}, "plan": {}}`), func(filename string) {
		withFileSourceTestParams(DataSource().FilePaths(filename), func(p fileSourceTestParams) {
			p.waitForStart()
			require.True(t, p.source.IsInitialized())

			doc := th.RequireValue(t, p.sink.DocsCh(), time.Second)
			assert.Equal(t, 1, doc.Count())
			assert.Equal(t, ldvalue.String("abc"), doc.GetByKey("Mixpanel").GetByKey("token"))
		})
	})
}

func TestFileSourceWithoutIntegrationsDeliversEmptyObject(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"plan": {}}`), func(filename string) {
		withFileSourceTestParams(DataSource().FilePaths(filename), func(p fileSourceTestParams) {
			p.waitForStart()

			doc := th.RequireValue(t, p.sink.DocsCh(), time.Second)
			assert.Equal(t, ldvalue.ObjectType, doc.Type())
			assert.Equal(t, 0, doc.Count())
		})
	})
}

func TestFileSourceWithTwoFiles(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Mixpanel": {}}}`), func(filename1 string) {
		sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Amplitude": {}}}`), func(filename2 string) {
			withFileSourceTestParams(DataSource().FilePaths(filename1, filename2), func(p fileSourceTestParams) {
				p.waitForStart()
				require.True(t, p.source.IsInitialized())

				doc := th.RequireValue(t, p.sink.DocsCh(), time.Second)
				_, ok1 := doc.TryGetByKey("Mixpanel")
				_, ok2 := doc.TryGetByKey("Amplitude")
				assert.True(t, ok1)
				assert.True(t, ok2)
			})
		})
	})
}

func TestFileSourceWithConflictingFiles(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Mixpanel": {"token": "a"}}}`), func(filename1 string) {
		sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Mixpanel": {"token": "b"}}}`), func(filename2 string) {
			withFileSourceTestParams(DataSource().FilePaths(filename1, filename2), func(p fileSourceTestParams) {
				p.waitForStart()
				require.False(t, p.source.IsInitialized())

				p.mockLog.AssertMessageMatch(t, true, ldlog.Error, "specified by multiple files")
				th.AssertNoMoreValues(t, p.sink.DocsCh(), 0)
			})
		})
	})
}

func TestDuplicateKeysHandlingCanSuppressErrors(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Mixpanel": {"token": "a"}}}`), func(filename1 string) {
		sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Mixpanel": {"token": "b"}}}`), func(filename2 string) {
			configurer := DataSource().FilePaths(filename1, filename2).
				DuplicateKeysHandling(DuplicateKeysIgnoreAllButFirst)
			withFileSourceTestParams(configurer, func(p fileSourceTestParams) {
				p.waitForStart()
				require.True(t, p.source.IsInitialized())

				doc := th.RequireValue(t, p.sink.DocsCh(), time.Second)
				assert.Equal(t, ldvalue.String("a"), doc.GetByKey("Mixpanel").GetByKey("token"))
				p.mockLog.AssertMessageMatch(t, false, ldlog.Error, "specified by multiple files")
			})
		})
	})
}

func TestFileSourceBadData(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`bad data`), func(filename string) {
		withFileSourceTestParams(DataSource().FilePaths(filename), func(p fileSourceTestParams) {
			p.waitForStart()
			require.False(t, p.source.IsInitialized())
			p.mockLog.AssertMessageMatch(t, true, ldlog.Error, "Unable to load settings")
		})
	})
}

func TestFileSourceIntegrationsOfWrongType(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": ["Mixpanel"]}`), func(filename string) {
		withFileSourceTestParams(DataSource().FilePaths(filename), func(p fileSourceTestParams) {
			p.waitForStart()
			require.False(t, p.source.IsInitialized())
		})
	})
}

func TestFileSourceMissingFile(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte{}, func(filename string) {
		_ = os.Remove(filename)

		withFileSourceTestParams(DataSource().FilePaths(filename), func(p fileSourceTestParams) {
			p.waitForStart()
			assert.False(t, p.source.IsInitialized())
		})
	})
}

func TestFileSourceRefreshRereadsFiles(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": {"Mixpanel": {}}}`), func(filename string) {
		withFileSourceTestParams(DataSource().FilePaths(filename), func(p fileSourceTestParams) {
			p.waitForStart()
			th.RequireValue(t, p.sink.DocsCh(), time.Second)

			require.NoError(t, os.WriteFile(filename, []byte(`{"integrations": {"Amplitude": {}}}`), 0600))
			p.source.Refresh()

			doc := th.RequireValue(t, p.sink.DocsCh(), time.Second)
			_, ok := doc.TryGetByKey("Amplitude")
			assert.True(t, ok)
		})
	})
}

func TestReloaderIsStartedAndClosed(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": {}}`), func(filename string) {
		var reload func()
		var closeCh <-chan struct{}
		factory := func(paths []string, loggers ldlog.Loggers, reloadFn func(), ch <-chan struct{}) error {
			assert.Len(t, paths, 1)
			reload = reloadFn
			closeCh = ch
			return nil
		}
		withFileSourceTestParams(DataSource().FilePaths(filename).Reloader(factory), func(p fileSourceTestParams) {
			p.waitForStart()
			th.RequireValue(t, p.sink.DocsCh(), time.Second)
			require.NotNil(t, reload)

			reload()
			th.RequireValue(t, p.sink.DocsCh(), time.Second)

			require.NoError(t, p.source.Close())
			th.AssertChannelClosed(t, closeCh, time.Second)
		})
	})
}

func TestReloaderFailureIsLogged(t *testing.T) {
	sharedtest.WithTempFileContaining([]byte(`{"integrations": {}}`), func(filename string) {
		factory := func([]string, ldlog.Loggers, func(), <-chan struct{}) error {
			return errors.New("sorry")
		}
		withFileSourceTestParams(DataSource().FilePaths(filename).Reloader(factory), func(p fileSourceTestParams) {
			p.waitForStart()
			p.mockLog.AssertMessageMatch(t, true, ldlog.Error, "Unable to start reloader: sorry")
		})
	})
}
