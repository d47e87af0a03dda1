package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(booksProcessedTotal, booksIngestedTotal, booksStalledResetTotal)
}

var booksProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "books_processed_total",
		Help: "Books that finished a driver pass, labeled by terminal status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var booksIngestedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "books_ingested_total",
		Help: "New books created from the upstream task list.",
	},
)

var booksStalledResetTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "books_stalled_reset_total",
		Help: "In-progress books reset to failed by the recovery sweep.",
	},
)

func IncBookProcessed(status string) { booksProcessedTotal.WithLabelValues(norm(status)).Inc() }
func AddBooksIngested(n int)         { booksIngestedTotal.Add(float64(n)) }
func AddBooksStalledReset(n int)     { booksStalledResetTotal.Add(float64(n)) }
