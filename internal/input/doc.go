// Package input reads certificate identifiers from CSV files.
package input
