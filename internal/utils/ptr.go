package utils

// Ptr returns a pointer to v. Handy for the optional fields in the copilot
// SDK's event types.
func Ptr[T any](v T) *T {
	return &v
}
