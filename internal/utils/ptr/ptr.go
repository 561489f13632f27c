// Package ptr provides small helpers for building pointers to literals.
package ptr

func To[T any](v T) *T {
	return &v
}

func ToString(v string) *string {
	return &v
}

func ToBool(v bool) *bool {
	return &v
}

// Deref returns the pointed-to value or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
