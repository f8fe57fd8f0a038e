package testutil

// IntPtr is a helper for creating *int values in tests
func IntPtr(v int) *int {
	return &v
}

// BoolPtr is a helper for creating *bool values in tests
func BoolPtr(v bool) *bool {
	return &v
}

// StringPtr is a helper for creating *string values in tests
func StringPtr(v string) *string {
	return &v
}
