// Package score reduces probe results to a 0-100 health score.
//
// Points are additive and awarded independently per signal. Signals that
// could not be determined earn nothing, so a site for which every probe
// failed scores 0 (plain http sites keep their 5 point TLS credit).
package score
