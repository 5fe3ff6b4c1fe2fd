package liblf

// This file is only for test purpose and is only loaded by test framework.

// ErrorMessage exposes errorMessage for test purpose.
func ErrorMessage(body []byte) string {
	return errorMessage(body)
}
