// Package config provides configuration structures and utilities for
// webstitch. It defines the crawl options, selector configuration, output
// preferences, and the optional .webstitch yaml file with per-site settings.
package config
