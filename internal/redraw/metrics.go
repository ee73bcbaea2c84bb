package redraw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	redrawsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "movetable_redraws_total",
		Help: "Total number of committed redraws",
	})

	redrawOps = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "movetable_redraw_ops",
		Help:    "Document mutations performed per redraw",
		Buckets: []float64{0, 1, 5, 20, 100, 500, 2000},
	})

	loadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "movetable_loads_total",
		Help: "Dataset loads by outcome",
	}, []string{"result"})

	datasetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "movetable_dataset_moves",
		Help: "Number of moves in the current dataset",
	})
)
