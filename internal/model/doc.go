// Package model defines the core data structures used throughout sitecheck.
//
// This package contains the following main types:
//   - Target: a parsed site URL and its storage partition key
//   - SiteReport: the consolidated result of one pipeline run for one site
//   - Per-probe result types (Reachability, Fetch, RedirectChain, TLSInfo, ...)
//   - Stage: the ordered list of pipeline stages
//   - VersionRecord and StoreResult: content archive bookkeeping
//   - Event: progress notifications emitted while a site is processed
//
// Multiple packages (probe, archive, pipeline, report, database) share these
// types, so they live in their own package to avoid import cycles.
// All types serialize to JSON for report output and database storage.
package model
