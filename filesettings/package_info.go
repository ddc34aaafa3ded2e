// Package filesettings allows the analytics client to read integration settings from local files
// instead of fetching them from the settings service.
//
// Each file contains a settings document in JSON or YAML, with the same shape as the one the
// settings service returns:
//
//	{
//	    "integrations": {
//	        "Mixpanel": { "token": "abc" },
//	        "Amplitude": { "apiKey": "def" }
//	    }
//	}
//
// or, in YAML:
//
//	integrations:
//	  Mixpanel:
//	    token: abc
//
// The integrations of all files are combined. By default it is an error for the same integration
// key to appear in more than one file; see DataSourceBuilder.DuplicateKeysHandling.
//
// To use the file source, store it in the Settings field of the client configuration:
//
//	config := analytics.Config{
//	    Settings: filesettings.DataSource().FilePaths("./settings.yaml"),
//	}
//
// The files are read once when the client starts, and again whenever the application calls
// RefreshSettings. To reload them whenever they change, add a reloader from the filewatch package:
//
//	config := analytics.Config{
//	    Settings: filesettings.DataSource().
//	        FilePaths("./settings.yaml").
//	        Reloader(filewatch.WatchFiles),
//	}
//
// If any file cannot be read or parsed, no settings are delivered for that load attempt, and the
// previously delivered settings remain in effect.
package filesettings
