// Package subsystems contains interfaces for implementation of custom analytics client components.
//
// Most applications will not need to refer to these types. You will use them if you are creating a
// plug-in component, such as a transport or a settings source, or a test fixture. They are also used
// as interfaces for the built-in components, so that plugin components can be used interchangeably
// with those: for instance, Config.Transport uses the type subsystems.Transport as an abstraction for
// the component that delivers batches.
//
// The package also includes concrete types that are used as parameters within these interfaces.
package subsystems
