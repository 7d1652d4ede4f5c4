// Package registry provides a small in-process object registry.
//
// It maps stable type names to providers (factories or shared values) and
// produces instances on demand. The handler pool uses it to resolve
// constructor dependencies; any failure is an ordinary error return, which
// callers are free to treat as "try a fallback" rather than as fatal.
package registry
