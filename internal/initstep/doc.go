// Package initstep runs the commands that belong between "dependencies are
// ready" and "hand off to the server": database migrations, asset
// collection, cache warming. Steps run in order, optionally serialized
// across replicas by a file lock, and a step marked once records a stamp of
// its definition so unchanged steps do not repeat on the next boot.
package initstep
