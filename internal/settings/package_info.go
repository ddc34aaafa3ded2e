// Package settings is an internal package containing the polling implementation of
// subsystems.SettingsSource, which fetches the project's remote integration settings.
//
// Applications should configure it with components.PollingSettings().
package settings
