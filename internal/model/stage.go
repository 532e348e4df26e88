package model

// Stage identifies one step of the per-site pipeline.
// Stages run in the order they are declared here.
type Stage int

const (
	// StageReachability runs the five reachability attempts and captures the body.
	StageReachability Stage = iota
	// StageTiming measures one GET round trip.
	StageTiming
	// StageRedirects walks the redirect chain manually.
	StageRedirects
	// StageTLS reads the peer certificate of https targets.
	StageTLS
	// StageDNS resolves A records.
	StageDNS
	// StagePing sends a single ICMP echo.
	StagePing
	// StageContentType reports the content type of the captured body.
	StageContentType
	// StageTitle extracts the first <title>.
	StageTitle
	// StageErrorScan looks for error keywords in the captured body.
	StageErrorScan
	// StageRobots checks /robots.txt.
	StageRobots
	// StageSitemap checks /sitemap.xml.
	StageSitemap
	// StageMetaRefresh looks for a meta refresh element.
	StageMetaRefresh
	// StagePlatform fingerprints WordPress markers and endpoints.
	StagePlatform
	// StageStore archives the captured body.
	StageStore
	// StageScore derives the health score.
	StageScore
	// StageSnapshot renders a visual snapshot of the page.
	StageSnapshot
)

var stageNames = [...]string{
	StageReachability: "reachability",
	StageTiming:       "timing",
	StageRedirects:    "redirects",
	StageTLS:          "tls",
	StageDNS:          "dns",
	StagePing:         "ping",
	StageContentType:  "content_type",
	StageTitle:        "title",
	StageErrorScan:    "error_scan",
	StageRobots:       "robots",
	StageSitemap:      "sitemap",
	StageMetaRefresh:  "meta_refresh",
	StagePlatform:     "platform",
	StageStore:        "store",
	StageScore:        "score",
	StageSnapshot:     "snapshot",
}

var stageLabels = [...]string{
	StageReachability: "Checking reachability",
	StageTiming:       "Measuring response time",
	StageRedirects:    "Following redirects",
	StageTLS:          "Checking TLS certificate",
	StageDNS:          "Resolving DNS",
	StagePing:         "Pinging host",
	StageContentType:  "Reading content type",
	StageTitle:        "Extracting title",
	StageErrorScan:    "Scanning for error keywords",
	StageRobots:       "Checking robots.txt",
	StageSitemap:      "Checking sitemap.xml",
	StageMetaRefresh:  "Detecting meta refresh",
	StagePlatform:     "Fingerprinting platform",
	StageStore:        "Archiving content",
	StageScore:        "Computing score",
	StageSnapshot:     "Rendering snapshot",
}

// AllStages returns every stage in pipeline order.
func AllStages() []Stage {
	stages := make([]Stage, 0, len(stageNames))
	for s := range stageNames {
		stages = append(stages, Stage(s))
	}
	return stages
}

// String returns the machine-readable stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Label returns a human-readable description used in progress output.
func (s Stage) Label() string {
	if s < 0 || int(s) >= len(stageLabels) {
		return "Unknown stage"
	}
	return stageLabels[s]
}
