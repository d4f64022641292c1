// Package store defines the persistence interfaces for service requests and
// their child records, together with the errors and transaction helper shared
// by every implementation.
package store
