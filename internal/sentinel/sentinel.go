package sentinel

// Compile-time check that Error implements the error interface.
var _ error = Error("")

// Error is a sentinel error backed by a string constant. Declaring sentinels
// as const (which errors.New cannot offer, since it returns a pointer that
// must live in a var) keeps them immutable: no importer can reassign an
// exported error value.
//
// Error is a comparable type, so the == fallback used by errors.Is matches
// these sentinels through arbitrarily wrapped chains.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}
