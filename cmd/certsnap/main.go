// Package main provides the entry point for the certsnap CLI.
//
// certsnap resolves certificate identifiers against the grading service's
// lookup site, downloads the certification media for each one, and emits
// a CSV mapping every identifier to its media URLs.
//
// Usage:
//
//	certsnap run --input certs.csv --proxy http://APIKEY:@proxy.example.com:8001
//	certsnap history
//
// See --help for all available options.
package main

// main is the entry point for certsnap.
func main() {
	Execute()
}
