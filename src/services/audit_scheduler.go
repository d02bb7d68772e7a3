// backend/src/services/audit_scheduler.go
package services

import (
	"github.com/robfig/cron/v3"
	"github.com/username/clubtreso/backend/src/logger"
)

// StartAuditSchedule runs the duplicate-link audit on the given cron spec,
// report-only. Repairs stay an explicit operator action. An empty spec
// disables the schedule.
func StartAuditSchedule(spec string, service ReconciliationService) (*cron.Cron, error) {
	if spec == "" {
		logger.L.Info("Periodic link audit disabled, no cron spec configured")
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		report, err := service.AuditLinks(false)
		if err != nil {
			logger.L.Error("Scheduled link audit failed", "error", err)
			return
		}
		if report.WithDuplicates > 0 {
			logger.L.Warn("Scheduled link audit found duplicate links",
				"withDuplicates", report.WithDuplicates, "scanned", report.Scanned)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.L.Info("Periodic link audit scheduled", "spec", spec)
	return c, nil
}
