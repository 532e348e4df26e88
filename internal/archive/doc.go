// Package archive stores versioned copies of each site's HTML.
//
// Files live under <root>/<domain>/ and are partitioned by calendar day:
//
//	<root>/example.com/2025-01-02.html      version 0
//	<root>/example.com/2025-01-02_1.html    version 1
//	<root>/example.com/2025-01-02_2.html    version 2
//	<root>/example.com/screenshots/screenshot.png
//
// Save writes a new version only when the latest file of the day is older
// than the debounce window and its SHA3-256 digest differs from the
// candidate body. Writes for one domain are serialized so sequence numbers
// stay contiguous; different domains never contend.
package archive
