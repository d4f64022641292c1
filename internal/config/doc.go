// Package config handles configuration loading and validation from defaults,
// an optional config file and environment variables. Each component receives
// its section of Config at construction time.
package config
