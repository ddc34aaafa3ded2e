// Package interfaces contains types that describe the analytics client's configuration and state.
//
// You will not need to refer to these types in your code unless you are inspecting the client's
// statistics or creating a custom component, such as a transport or a settings source.
package interfaces
