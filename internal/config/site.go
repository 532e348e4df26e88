package config

import (
	"maps"
	"slices"
	"strings"

	"github.com/nao1215/sitecheck/internal/model"
)

// SiteConfig holds the per-site overrides for one checked site.
type SiteConfig struct {
	// Headers are custom HTTP headers added to every probe request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent replaces the default User-Agent for plain requests.
	UserAgent string `yaml:"userAgent,omitempty"`

	// ErrorKeywords replace the global error keywords for this site.
	ErrorKeywords []string `yaml:"errorKeywords,omitempty"`

	// Snapshot turns snapshots on or off for this site.
	// nil keeps the global setting.
	Snapshot *bool `yaml:"snapshot,omitempty"`
}

// File represents the structure of the .sitecheck configuration file.
type File struct {
	// Sites maps a site key to its configuration. A key is matched against
	// the full URL, the domain key (host plus "_port") and the host, in that order.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a site key merged over the defaults.
func (cf *File) GetSiteConfig(key string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	siteConfig, ok := cf.Sites[key]
	if !ok {
		siteConfig, ok = cf.Sites[strings.ToLower(key)]
	}
	if !ok {
		return result
	}

	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(siteConfig.Headers))
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.ErrorKeywords) > 0 {
		result.ErrorKeywords = siteConfig.ErrorKeywords
	}
	if siteConfig.Snapshot != nil {
		result.Snapshot = siteConfig.Snapshot
	}
	return result
}

// ForTarget returns the merged configuration for target.
func (cf *File) ForTarget(target model.Target) SiteConfig {
	for _, key := range []string{target.URL, target.Domain, target.Host} {
		if _, ok := cf.Sites[key]; ok {
			return cf.GetSiteConfig(key)
		}
	}
	return cf.GetSiteConfig(target.Host)
}

// SnapshotEnabled reports whether snapshots are on for this site given the global setting.
func (sc SiteConfig) SnapshotEnabled(global bool) bool {
	if sc.Snapshot == nil {
		return global
	}
	return *sc.Snapshot
}

// HeaderNames returns every header name set in the defaults or any site,
// sorted and without duplicates.
func (cf *File) HeaderNames() []string {
	names := slices.Collect(maps.Keys(cf.Defaults.Headers))
	for _, site := range cf.Sites {
		names = slices.AppendSeq(names, maps.Keys(site.Headers))
	}
	slices.Sort(names)
	return slices.Compact(names)
}
