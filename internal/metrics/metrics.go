package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MarksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marq_marks_created_total",
		Help: "Marks successfully persisted.",
	})

	MarksUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marq_marks_updated_total",
		Help: "Mark updates that matched an existing row.",
	})

	MarksDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marq_marks_deleted_total",
		Help: "Marks removed by their owner.",
	})

	BookmarksReclaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marq_bookmarks_reclaimed_total",
		Help: "Unstarred bookmarks deleted after losing their last mark.",
	})

	ReclaimErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marq_bookmark_reclaim_errors_total",
		Help: "Reclaim attempts that failed after a successful mark deletion.",
	})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marq_events_dropped_total",
		Help: "Lifecycle events dropped because a subscriber buffer was full.",
	})
)
