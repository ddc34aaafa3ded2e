// Package components provides the configuration builders for the analytics client's components.
//
// Each function in this package returns a builder whose Build method the client calls when it
// starts. Applications set builder properties and store the builder in analytics.Config:
//
//	config := analytics.Config{
//	    Queue:    components.Queue().FlushAt(50).FlushInterval(time.Minute),
//	    Settings: components.PollingSettings().PollInterval(30 * time.Minute),
//	    Logging:  components.Logging().MinLevel(ldlog.Warn),
//	}
package components
