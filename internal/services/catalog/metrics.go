package services

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

// ClassifiedSessionsTotal считает сессии, отданные витринами, по уровню доступа.
var ClassifiedSessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "catalog_classified_sessions_total",
		Help: "Total number of sessions returned by catalog surfaces",
	},
	[]string{"access_level", "locked"},
)

func observe(items []models.ControlledSession) {
	for _, item := range items {
		ClassifiedSessionsTotal.WithLabelValues(string(item.AccessLevel), strconv.FormatBool(item.IsLocked)).Inc()
	}
}
