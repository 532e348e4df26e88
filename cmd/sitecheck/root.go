package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitecheck.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecheck",
		Short: "Website health checker with versioned HTML history",
		Long: `sitecheck probes websites for availability, security and content problems.

Each site goes through the same ordered checks: reachability, response time,
redirects, TLS certificate, DNS, ping, content type, title, error keywords,
robots.txt, sitemap.xml, meta refresh and a WordPress fingerprint. The HTML is
archived when it changed, the results are reduced to a 0-100 health score and
a snapshot of the page is rendered with headless Chrome when available.

Results of every scan are recorded; 'sitecheck history' shows how a site's
score moved over time.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging (includes HTTP traffic)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output (also honored: NO_COLOR)")

	cmd.AddCommand(
		NewScanCmd(),
		NewHistoryCmd(),
		NewInitCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sitecheck: %v\n", err)
		os.Exit(1)
	}
}
