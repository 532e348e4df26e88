// Package main provides the entry point for the sitecheck CLI.
//
// sitecheck probes websites through a fixed battery of availability,
// security and content checks, scores their health from 0 to 100 and keeps
// a deduplicated, date-partitioned history of each site's HTML.
//
// Usage:
//
//	sitecheck scan <url>...
//	sitecheck scan --list <file>
//	sitecheck history <url>
//
// See --help for all available options.
package main

// main is the entry point for sitecheck.
func main() {
	Execute()
}
