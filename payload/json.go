package payload

import (
	"fmt"
	"time"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// TimestampLayout is the ISO-8601 layout, with millisecond precision, used for every timestamp in
// the wire format.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp formats a time in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func encode(p Payload) ([]byte, error) {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("type").String(string(p.kind))
	obj.Name("messageId").String(p.messageID)
	obj.Name("timestamp").String(FormatTimestamp(p.timestamp))
	obj.Maybe("anonymousId", p.anonymousID != "").String(p.anonymousID)
	obj.Maybe("userId", p.userID != "").String(p.userID)
	if !p.context.IsNull() {
		p.context.WriteToJSONWriter(obj.Name("context"))
	}
	if !p.integrations.IsEmpty() {
		p.integrations.AsValue().WriteToJSONWriter(obj.Name("integrations"))
	}
	switch p.kind {
	case IdentifyType:
		writeValue(&obj, "traits", p.traits)
	case TrackType:
		obj.Name("event").String(p.event)
		writeValue(&obj, "properties", p.properties)
	case ScreenType:
		obj.Maybe("name", p.name != "").String(p.name)
		obj.Maybe("category", p.category != "").String(p.category)
		writeValue(&obj, "properties", p.properties)
	case GroupType:
		obj.Name("groupId").String(p.groupID)
		writeValue(&obj, "traits", p.traits)
	case AliasType:
		obj.Name("previousId").String(p.previousID)
	}
	obj.End()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("unable to serialize %s payload: %w", p.kind, err)
	}
	return w.Bytes(), nil
}

func writeValue(obj *jwriter.ObjectState, name string, value ldvalue.Value) {
	if value.IsNull() {
		return
	}
	value.WriteToJSONWriter(obj.Name(name))
}

// Parse decodes the serialized form of a payload, as produced by Data. The returned payload has no
// row ID; the queue attaches one with WithRowID.
func Parse(data []byte) (Payload, error) {
	var p Payload
	var timestamp string
	r := jreader.NewReader(data)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "type":
			p.kind = Type(r.String())
		case "messageId":
			p.messageID = r.String()
		case "timestamp":
			timestamp = r.String()
		case "anonymousId":
			p.anonymousID, _ = r.StringOrNull()
		case "userId":
			p.userID, _ = r.StringOrNull()
		case "context":
			p.context.ReadFromJSONReader(&r)
		case "integrations":
			var value ldvalue.Value
			value.ReadFromJSONReader(&r)
			p.integrations = IntegrationOptionsFromValue(value)
		case "traits":
			p.traits.ReadFromJSONReader(&r)
		case "event":
			p.event, _ = r.StringOrNull()
		case "properties":
			p.properties.ReadFromJSONReader(&r)
		case "name":
			p.name, _ = r.StringOrNull()
		case "category":
			p.category, _ = r.StringOrNull()
		case "groupId":
			p.groupID, _ = r.StringOrNull()
		case "previousId":
			p.previousID, _ = r.StringOrNull()
		default:
			_ = r.SkipValue()
		}
	}
	if err := r.Error(); err != nil {
		return Payload{}, fmt.Errorf("malformed payload JSON: %w", err)
	}
	if !p.kind.IsValid() {
		return Payload{}, fmt.Errorf("%w: %q", ErrInvalidType, p.kind)
	}
	if p.messageID == "" {
		return Payload{}, fmt.Errorf("malformed payload JSON: missing messageId")
	}
	t, err := time.Parse(TimestampLayout, timestamp)
	if err != nil {
		return Payload{}, fmt.Errorf("malformed payload timestamp %q: %w", timestamp, err)
	}
	p.timestamp = t
	p.data = append([]byte(nil), data...)
	return p, nil
}
