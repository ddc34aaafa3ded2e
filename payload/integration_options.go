package payload

import (
	"sort"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// AllIntegrationsKey is the wildcard key of an integrations map. It matches every target, and is
// compared without regard to case.
const AllIntegrationsKey = "all"

// IntegrationOptions is the per-payload mapping from target name (or the "all" wildcard) to either a
// boolean or an options object. It decides which targets receive a particular payload.
//
// The zero value is an empty map, which enables every target.
type IntegrationOptions struct {
	value ldvalue.Value
}

// IntegrationOptionsFromValue wraps a JSON object. Any other kind of value is treated as an empty map.
func IntegrationOptionsFromValue(value ldvalue.Value) IntegrationOptions {
	if value.Type() != ldvalue.ObjectType {
		return IntegrationOptions{}
	}
	return IntegrationOptions{value: value}
}

// AsValue returns the options as a JSON object, or a null value if there are none.
func (o IntegrationOptions) AsValue() ldvalue.Value {
	return o.value
}

// IsEmpty returns true if the options contain no keys.
func (o IntegrationOptions) IsEmpty() bool {
	return o.value.Count() == 0
}

// Get returns the raw option for a key, using an exact match.
func (o IntegrationOptions) Get(key string) (ldvalue.Value, bool) {
	return o.value.TryGetByKey(key)
}

// Enabled reports whether a payload carrying these options should be delivered to the named target.
//
// Resolution starts from true. A wildcard key sets the result; then a key exactly matching the
// target overrides it. The wildcard is matched case-insensitively: if the map contains more than one
// casing of "all", the lowercase form takes precedence, and otherwise the first in sorted order is
// used. A boolean value sets the result, and any other value (such as an options object) means the
// target is enabled.
func (o IntegrationOptions) Enabled(target string) bool {
	if o.IsEmpty() {
		return true
	}
	enabled := true
	if wildcard, ok := o.wildcard(); ok {
		enabled = isEnabledValue(wildcard)
	}
	if !strings.EqualFold(target, AllIntegrationsKey) {
		if specific, ok := o.value.TryGetByKey(target); ok {
			enabled = isEnabledValue(specific)
		}
	}
	return enabled
}

func (o IntegrationOptions) wildcard() (ldvalue.Value, bool) {
	if v, ok := o.value.TryGetByKey(AllIntegrationsKey); ok {
		return v, true
	}
	var matches []string
	for key := range o.value.AsValueMap().AsMap() {
		if strings.EqualFold(key, AllIntegrationsKey) {
			matches = append(matches, key)
		}
	}
	if len(matches) == 0 {
		return ldvalue.Null(), false
	}
	sort.Strings(matches)
	return o.value.GetByKey(matches[0]), true
}

func isEnabledValue(v ldvalue.Value) bool {
	if v.Type() == ldvalue.BoolType {
		return v.BoolValue()
	}
	return true
}

func (o IntegrationOptions) withDisabled(keys []string) IntegrationOptions {
	m := o.value.AsValueMap().AsMap()
	if m == nil {
		m = make(map[string]ldvalue.Value, len(keys))
	}
	for _, k := range keys {
		m[k] = ldvalue.Bool(false)
	}
	return IntegrationOptions{value: ldvalue.CopyObject(m)}
}

// IntegrationOptionsBuilder builds an IntegrationOptions value.
type IntegrationOptionsBuilder struct {
	values map[string]ldvalue.Value
}

// NewIntegrationOptions creates an IntegrationOptionsBuilder.
//
//	opts := payload.NewIntegrationOptions().DisableAll().Enable("Mixpanel").Build()
func NewIntegrationOptions() *IntegrationOptionsBuilder {
	return &IntegrationOptionsBuilder{values: make(map[string]ldvalue.Value)}
}

// Enable sets the target to true.
func (b *IntegrationOptionsBuilder) Enable(target string) *IntegrationOptionsBuilder {
	b.values[target] = ldvalue.Bool(true)
	return b
}

// Disable sets the target to false.
func (b *IntegrationOptionsBuilder) Disable(target string) *IntegrationOptionsBuilder {
	b.values[target] = ldvalue.Bool(false)
	return b
}

// EnableAll sets the wildcard to true.
func (b *IntegrationOptionsBuilder) EnableAll() *IntegrationOptionsBuilder {
	return b.Enable(AllIntegrationsKey)
}

// DisableAll sets the wildcard to false.
func (b *IntegrationOptionsBuilder) DisableAll() *IntegrationOptionsBuilder {
	return b.Disable(AllIntegrationsKey)
}

// Options attaches a target-specific options object. The target is treated as enabled.
func (b *IntegrationOptionsBuilder) Options(target string, options ldvalue.Value) *IntegrationOptionsBuilder {
	b.values[target] = options
	return b
}

// Build returns the options.
func (b *IntegrationOptionsBuilder) Build() IntegrationOptions {
	if len(b.values) == 0 {
		return IntegrationOptions{}
	}
	return IntegrationOptions{value: ldvalue.CopyObject(b.values)}
}
