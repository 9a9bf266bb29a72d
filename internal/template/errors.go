package template

import "errors"

var (
	ErrTemplateNotFound = errors.New("template: not found")

	// ErrMissingTemplateKey is returned when a template references a key
	// the context does not define.
	ErrMissingTemplateKey = errors.New("template: missing key")

	// ErrUnexpandedToken is returned when rendered output still contains
	// a field action.
	ErrUnexpandedToken = errors.New("template: unexpanded token")

	ErrPathTraversal = errors.New("template: path traversal")
)
