// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package. It also embeds
// the schema migrations and the goose runner that applies them.
package postgres
