// Package domainkit contains types and abstractions to execute Domain
// Commands against a Bounded Context Model, persisting the Domain Events
// they produce and running the resulting cascades within a single logical
// transaction.
//
// The library contains multiple packages, you might want to start from
// `model` to register your Command and Event Handlers, and `engine` to
// execute Commands against the Model on top of an Event Store.
//
// `eventstore/inmemory` and `eventstore/postgres` provide Event Store
// implementations, while `queue` covers post-commit event egress.
package domainkit
