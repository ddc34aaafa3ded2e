package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	analytics "github.com/relaytics/analytics-go"
	"github.com/relaytics/analytics-go/components"
	"github.com/relaytics/analytics-go/filesettings"
	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/subsystems"
)

const envPrefix = "ANALYTICS"

// Keys shared by flags, environment variables, and the configuration file.
const (
	keyWriteKey      = "write-key"
	keyDatabase      = "database"
	keyCollectionURI = "collection-uri"
	keySettingsURI   = "settings-uri"
	keySettingsFile  = "settings-file"
	keyNoSettings    = "no-settings"
	keyTimeout       = "timeout"
	keyVerbose       = "verbose"
	keyFormat        = "format"
)

var validFormats = []string{"text", "json", "prometheus"}

type rootOptions struct {
	v *viper.Viper
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{v: viper.New()}
	var configFile string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Send analytics events and inspect the on-device queue",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.load(cmd, configFile); err != nil {
				return err
			}
			format := opts.v.GetString(keyFormat)
			for _, f := range validFormats {
				if f == format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", format, validFormats)
		},
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "configuration file (default: analytics.yml in the current directory)")
	flags.String(keyWriteKey, "", "write key of the source")
	flags.String(keyDatabase, components.DefaultDatabasePath, "path of the queue database")
	flags.String(keyCollectionURI, "", "base URI of the collection endpoint")
	flags.String(keySettingsURI, "", "base URI of the settings endpoint")
	flags.StringSlice(keySettingsFile, nil, "read integration settings from local JSON or YAML files")
	flags.Bool(keyNoSettings, false, "do not obtain integration settings")
	flags.Duration(keyTimeout, 10*time.Second, "how long to wait for delivery")
	flags.BoolP(keyVerbose, "v", false, "verbose output")
	flags.String(keyFormat, "text", "output format (text|json|prometheus)")

	cmd.AddCommand(newTrackCommand(opts))
	cmd.AddCommand(newIdentifyCommand(opts))
	cmd.AddCommand(newScreenCommand(opts))
	cmd.AddCommand(newFlushCommand(opts))
	cmd.AddCommand(newStatsCommand(opts))

	return cmd
}

// load merges flags, environment variables, and the optional configuration file. Flags that were
// set explicitly take precedence.
func (o *rootOptions) load(cmd *cobra.Command, configFile string) error {
	v := o.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("analytics")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("unable to read configuration: %w", err)
		}
	}
	return nil
}

func (o *rootOptions) config() analytics.Config {
	v := o.v
	logging := components.Logging().MinLevel(ldlog.Warn)
	if v.GetBool(keyVerbose) {
		logging.MinLevel(ldlog.Debug)
	}

	var settings subsystems.ComponentConfigurer[subsystems.SettingsSource]
	switch {
	case v.GetBool(keyNoSettings):
		settings = components.NoSettings()
	case len(v.GetStringSlice(keySettingsFile)) > 0:
		settings = filesettings.DataSource().FilePaths(v.GetStringSlice(keySettingsFile)...)
	default:
		settings = components.PollingSettings()
	}

	return analytics.Config{
		Logging: logging,
		Queue:   components.Queue().DatabasePath(v.GetString(keyDatabase)).FlushInterval(time.Hour),
		ServiceEndpoints: interfaces.ServiceEndpoints{
			Collection: v.GetString(keyCollectionURI),
			Settings:   v.GetString(keySettingsURI),
		},
		Settings: settings,
	}
}

// withClient creates a client, runs action, and closes the client. The client's own final flush is
// what delivers anything action queued.
func (o *rootOptions) withClient(action func(*analytics.Client) error) error {
	writeKey := o.v.GetString(keyWriteKey)
	if writeKey == "" {
		return fmt.Errorf("a write key is required: use --%s or %s_WRITE_KEY", keyWriteKey, envPrefix)
	}
	client, err := analytics.MakeCustomClient(writeKey, o.config(), o.v.GetDuration(keyTimeout))
	if err != nil && client == nil {
		return err
	}
	defer client.Close() //nolint:errcheck
	return action(client)
}
