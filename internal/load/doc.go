// Package load validates the mass and direction fields entered for a run and
// turns them into a force.
//
//   - [ParseDirection]: normalize and check an axis token (x+, x-, y+, y-, z+, z-)
//   - [Parse]: validate mass and both directions, return the [Spec] and force
//   - [Spec.Vector]: force in global axes for the deck writer
//
// # Example
//
//	spec, force, err := load.Parse("50", "z+", "z-", true)
//	// force == 490.5
//
// Validation failures wrap [ErrInvalidInput] and name the offending value.
package load
