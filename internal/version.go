package internal

// LibraryVersion is the current version string of the library. This is updated by our release scripts.
const LibraryVersion = "1.0.0"

// UserAgent is the User-Agent header value sent with every request.
const UserAgent = "analytics-go/" + LibraryVersion
