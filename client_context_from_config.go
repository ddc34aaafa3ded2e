package analytics

import (
	"errors"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/components"
	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/internal"
	"github.com/relaytics/analytics-go/subsystems"
)

var errEmptyWriteKey = errors.New("write key must not be empty")

func newClientContextFromConfig(
	writeKey string,
	config Config,
) (subsystems.BasicClientContext, error) {
	if writeKey == "" {
		return subsystems.BasicClientContext{}, errEmptyWriteKey
	}

	basicContext := subsystems.BasicClientContext{
		WriteKey:         writeKey,
		ApplicationInfo:  config.ApplicationInfo,
		ServiceEndpoints: config.ServiceEndpoints,
	}

	loggingFactory := config.Logging
	if loggingFactory == nil {
		loggingFactory = components.Logging()
	}
	logging, err := loggingFactory.Build(basicContext)
	if err != nil {
		return subsystems.BasicClientContext{}, err
	}
	basicContext.Logging = logging

	httpFactory := config.HTTP
	if httpFactory == nil {
		httpFactory = components.HTTPConfiguration()
	}
	http, err := httpFactory.Build(basicContext)
	if err != nil {
		return subsystems.BasicClientContext{}, err
	}
	basicContext.HTTP = http

	return basicContext, nil
}

// makeBaseContext returns the context object attached to every payload: the configured ambient
// context, plus the library description and the application metadata.
func makeBaseContext(config Config) ldvalue.Value {
	ret := ldvalue.ObjectBuild()
	if config.Context.Type() == ldvalue.ObjectType {
		for key, value := range config.Context.AsValueMap().AsMap() {
			ret.Set(key, value)
		}
	}
	ret.Set("library", ldvalue.ObjectBuild().
		SetString("name", "analytics-go").
		SetString("version", internal.LibraryVersion).
		Build())
	if _, ok := config.Context.TryGetByKey("app"); !ok && !config.ApplicationInfo.IsEmpty() {
		ret.Set("app", makeAppContext(config.ApplicationInfo))
	}
	return ret.Build()
}

func makeAppContext(info interfaces.ApplicationInfo) ldvalue.Value {
	app := ldvalue.ObjectBuild()
	setIfNotEmpty := func(name, value string) {
		if value != "" {
			app.SetString(name, value)
		}
	}
	setIfNotEmpty("namespace", info.ApplicationID)
	setIfNotEmpty("name", info.ApplicationName)
	setIfNotEmpty("version", info.ApplicationVersion)
	setIfNotEmpty("build", info.ApplicationBuild)
	return app.Build()
}

// mergeObjects returns base with the properties of overlay added or replaced. A non-object overlay
// leaves base unchanged.
func mergeObjects(base, overlay ldvalue.Value) ldvalue.Value {
	if overlay.Type() != ldvalue.ObjectType || overlay.Count() == 0 {
		return base
	}
	if base.Type() != ldvalue.ObjectType {
		return overlay
	}
	m := base.AsValueMap().AsMap()
	for key, value := range overlay.AsValueMap().AsMap() {
		m[key] = value
	}
	return ldvalue.CopyObject(m)
}
