package api

// Classify exposes the error mapping to the external test package.
func Classify(err error) (status int, code string) {
	he := classify(err)
	return he.Status, he.Code
}
