// Package logging provides the structured logger used across loadwatch.
// Components depend on the Logger interface; the zerolog adapter is the only
// backend.
package logging
