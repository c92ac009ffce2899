package metrics

import (
	"database/sql"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *slog.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "dues_outstanding",
			Help: "Due records with an unpaid remainder",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM member_dues WHERE status IN ('pending','partially_paid','overdue')")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "dues_overdue",
			Help: "Due records marked overdue",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM member_dues WHERE status = 'overdue'")
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "members_active",
			Help: "Members currently billable",
		},
		func() float64 {
			return queryCount(db, logger, "SELECT COUNT(*) FROM members WHERE status = 'active'")
		},
	))
}

func queryCount(db *sql.DB, logger *slog.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", "error", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
