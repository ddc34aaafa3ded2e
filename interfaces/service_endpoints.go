package interfaces

// ServiceEndpoints allow configuration of custom service URIs.
//
// If you want to set non-default values for any of these fields, set the ServiceEndpoints field
// in the client's Config struct. An empty field means the default URI is used.
type ServiceEndpoints struct {
	// Collection is the base URI that batches of payloads are posted to.
	Collection string
	// Settings is the base URI that remote integration settings are fetched from.
	Settings string
}
