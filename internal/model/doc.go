// Package model defines the core data types shared across certsnap:
// media references discovered on certificate detail pages, stored media
// artifacts, per-identifier result records, and the record state machine.
//
// The types in this package are plain data carriers. Behavior that touches
// the network or the filesystem lives in the lookup, media, and pipeline
// packages; keeping model dependency-free avoids import cycles and makes
// the types easy to use in tests.
package model
