// Package config loads typed configuration structs from environment
// variables using struct tags, with optional .env file support for
// local development.
//
// Each configuration type is parsed once per process and cached, so
// independent components asking for the same struct receive identical
// values without re-reading the environment.
package config
