package checks

import (
	"context"

	"github.com/pawwalk/pawwalk/internal/monitoring"
)

// Integration reports an optional outbound integration as degraded when it
// has not been configured. The API keeps serving without it.
func Integration(name string, configured bool) monitoring.Check {
	return monitoring.NewCheck(name, func(context.Context) monitoring.ProbeResult {
		if !configured {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "not configured"}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	})
}
