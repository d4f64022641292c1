// Package domain contains the service request model and its invariants,
// independent of storage and transport.
package domain
