package sharedtest

import "github.com/relaytics/analytics-go/subsystems"

// ComponentConfigurerThatReturnsError is a ComponentConfigurer whose Build always fails.
type ComponentConfigurerThatReturnsError[T any] struct {
	Err error
}

func (c ComponentConfigurerThatReturnsError[T]) Build(subsystems.ClientContext) (T, error) { //nolint:revive
	var empty T
	return empty, c.Err
}
