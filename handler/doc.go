// Package handler provides a per-worker handler instantiation cache.
//
// A Pool maps stable handler identifiers to ready-to-use http.Handler
// instances, resolving constructor dependencies from a backing object
// registry and memoizing both instances and dependency metadata for the
// lifetime of the owning worker process. An HTTP dispatch layer calls
// Pool.Get once per inbound request to obtain the handler for that
// request's route.
//
// Handlers are registered either as struct prototypes, whose exported
// fields declare their dependencies, or as constructor closures. See
// Pool.Register and Pool.RegisterFunc.
package handler
