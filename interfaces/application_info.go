package interfaces

// ApplicationInfo allows configuration of application metadata.
//
// These values are included in the "app" section of the context of every payload. If you want to set
// non-default values for any of these fields, set the ApplicationInfo field in the client's Config struct.
type ApplicationInfo struct {
	// ApplicationID identifies the application, for instance by its package or bundle identifier.
	ApplicationID string

	// ApplicationName is a human-readable application name.
	ApplicationName string

	// ApplicationVersion is the version string of the application.
	ApplicationVersion string

	// ApplicationBuild is the build number of the application.
	ApplicationBuild string
}

// IsEmpty returns true if no fields are set.
func (a ApplicationInfo) IsEmpty() bool {
	return a == ApplicationInfo{}
}
