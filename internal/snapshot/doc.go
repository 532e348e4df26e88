// Package snapshot renders a visual snapshot of a page to an image file.
//
// The pipeline only records the resulting path; the image itself is never
// inspected. A rendering failure means "no snapshot available" and never
// fails the site.
package snapshot
