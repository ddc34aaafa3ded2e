// Package analytics is the main package of the analytics SDK.
//
// This package contains the client ([Client]) that applications use to record identify, track,
// screen, group, and alias calls, and its overall configuration ([Config]).
//
// Every call is stored in an on-device queue and delivered in batches to the collection endpoint,
// and is also passed synchronously to any bundled integrations that are ready to receive it. Most
// applications that need to change any configuration settings will use the package
// [github.com/relaytics/analytics-go/components].
//
// Event properties and traits are represented with the ldvalue package
// ([github.com/launchdarkly/go-sdk-common/v3/ldvalue]).
package analytics
