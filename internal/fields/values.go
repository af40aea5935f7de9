package fields

// Values maps configuration field ids to their current value.
type Values map[string]Value

// Get returns the value stored for id. Unknown ids read as absent.
func (vs Values) Get(id string) Value {
	if vs == nil {
		return Value{}
	}
	return vs[id]
}

// Active reports whether the field id holds an active value.
func (vs Values) Active(id string) bool {
	return vs.Get(id).Active()
}

// Numeric returns the numeric value of id, or 0 when the field is missing or
// holds something other than a number.
func (vs Values) Numeric(id string) float64 {
	n, _ := vs.Get(id).Number()
	return n
}

// AnyActive reports whether at least one of ids is active.
func (vs Values) AnyActive(ids []string) bool {
	for _, id := range ids {
		if vs.Active(id) {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy safe to mutate.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

// Merge returns a copy of vs with patch applied. Absent values in patch delete the key.
func (vs Values) Merge(patch Values) Values {
	out := vs.Clone()
	for k, v := range patch {
		if v.IsAbsent() {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Equal compares two value maps key by key.
func (vs Values) Equal(other Values) bool {
	if len(vs) != len(other) {
		return false
	}
	for k, v := range vs {
		o, ok := other[k]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}
