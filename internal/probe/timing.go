package probe

import (
	"context"
	"time"

	"github.com/nao1215/sitecheck/internal/model"
)

// ResponseTime issues one GET and returns the elapsed seconds, or nil on
// failure or timeout. The body is read so the measurement covers the
// full response.
func (p *Prober) ResponseTime(ctx context.Context, target model.Target) *float64 {
	start := time.Now()
	if _, err := p.get(ctx, target.URL, true); err != nil {
		p.logger.Debug("timing probe failed", "url", target.URL, "error", err)
		return nil
	}
	elapsed := time.Since(start).Seconds()
	return &elapsed
}
