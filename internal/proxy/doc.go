// Package proxy provides HTTP connectivity through an anti-bot proxy service.
//
// Certificate lookup sites sit behind bot-detection layers that block plain
// HTTP clients. This package routes requests through a forwarding proxy
// (such as ZenRows) that handles the browser challenges, and decorates every
// request with the configured User-Agent, cookie, and custom headers.
//
// The package works without a proxy as well: an empty proxy URL yields a
// direct client with the same decoration and retry behavior, which is what
// the test suite and local development use.
package proxy
