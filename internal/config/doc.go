// Package config defines certsnap's configuration, defaults, and the
// optional .certsnap YAML file for site-specific tuning.
package config
