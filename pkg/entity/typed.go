package entity

// GetTyped looks up a record and asserts it to T. Returns the zero value of
// T and false if the key is missing or holds a different type.
func GetTyped[T Record](r Reader, kind Kind, id ID) (T, bool) {
	rec, ok := r.Get(kind, id)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := rec.(T)
	return v, ok
}

// AllTyped returns every record of kind that has type T, in insertion order.
func AllTyped[T Record](r Reader, kind Kind) []T {
	recs := r.AllOfKind(kind)
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		if v, ok := rec.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// FilterTyped returns the records of kind with type T for which keep
// returns true.
func FilterTyped[T Record](r Reader, kind Kind, keep func(T) bool) []T {
	var out []T
	for _, v := range AllTyped[T](r, kind) {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
