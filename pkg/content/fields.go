package content

// CustomFields is the open-ended attribute bag the CMS attaches to a record.
// Values are whatever encoding/json produced: string, float64, bool, nil,
// []any or map[string]any.
type CustomFields map[string]any

// Has reports whether key is present, even with a null value.
func (f CustomFields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the value of key when it is a string, nil otherwise.
func (f CustomFields) String(key string) *string {
	v, ok := f[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// Bool returns the value of key when it is a bool, nil otherwise.
func (f CustomFields) Bool(key string) *bool {
	v, ok := f[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

// FirstString returns the first key holding a string value.
func (f CustomFields) FirstString(keys ...string) *string {
	for _, key := range keys {
		if v := f.String(key); v != nil {
			return v
		}
	}
	return nil
}

// StringOr returns the string at key when it is non-empty, fallback otherwise.
func (f CustomFields) StringOr(key, fallback string) string {
	if v := f.String(key); v != nil && *v != "" {
		return *v
	}
	return fallback
}
