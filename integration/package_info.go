// Package integration defines the contract between the analytics client and a bundled third-party
// analytics SDK ("integration", or "target").
//
// An integration is registered explicitly in Config.Integrations. The client moves each integration
// through a lifecycle driven by remote settings (see State), and mirrors every payload synchronously to
// each integration that is Ready and that the payload's integration options do not exclude.
//
// Most adapters embed Base and implement only Key, Validate, and the calls they care about:
//
//	type mixpanel struct {
//	    integration.Base
//	    token string
//	}
//
//	func (m *mixpanel) Key() string { return "Mixpanel" }
//
//	func (m *mixpanel) Validate(settings ldvalue.Value) error {
//	    if settings.GetByKey("token").StringValue() == "" {
//	        return integration.MissingSettingError("token")
//	    }
//	    return nil
//	}
package integration
