// Package service holds the citizen service request use cases. It sequences
// id generation, external validation, workflow transitions and persistence,
// and emits lifecycle events that drive notifications.
//
// The package depends on store interfaces and on small consumer-side
// interfaces over the DIGIT clients, never on concrete infrastructure.
package service
