// Package pipeline runs the per-site verification stages in a fixed order.
//
// A Pipeline holds an ordered list of Steps. Run creates a fresh State for
// the site and passes it through every step, so the body captured by the
// reachability stage is reused by the content, platform and store stages
// without fetching it again. Probe stages never fail; the store stage can,
// and its failure stops the pipeline for that site.
//
// Progress is reported through an Observer as the pipeline advances. The
// presentation layer decides how to display these events.
//
// BatchProcessor runs the pipeline over a list of sites. It is sequential
// by default and can overlap sites with errgroup when concurrency is raised.
package pipeline
