// Package gate turns single-attempt probes into a blocking wait: poll at a
// fixed interval, bound the whole thing by a timeout or attempt budget, and
// report how it ended. Probing semantics live in package probe; this
// package only decides when to ask again and when to give up.
package gate
