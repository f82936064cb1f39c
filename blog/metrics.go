package blog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	postsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "linkpress",
		Name:      "posts_created_total",
		Help:      "Posts created through the admin flow.",
	})
	tagsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "linkpress",
		Name:      "tags_created_total",
		Help:      "Tags created while reconciling post tags.",
	})
	storeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkpress",
		Name:      "store_failures_total",
		Help:      "Failed store reads and writes by operation.",
	}, []string{"operation"})
)
