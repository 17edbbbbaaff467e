package services

import (
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/progress"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/metrics"
)

const dateLayout = "2006-01-02"

// recordsFor converts stored entries for the engine and reports any record
// the engine had to repair. The engine itself stays silent about them.
func recordsFor(operation, habitID string, entries []*domain.HabitEntry) []progress.Record {
	records, anomalies := progress.Sanitize(domain.ToRecords(entries))
	metrics.ObserveEvaluation(operation, anomalies)

	if anomalies.Any() {
		log.WithFields(log.Fields{
			"habit_id":   habitID,
			"operation":  operation,
			"clamped":    anomalies.Clamped,
			"duplicates": anomalies.Duplicates,
		}).Warn("progress records repaired before aggregation")
	}

	return records
}
