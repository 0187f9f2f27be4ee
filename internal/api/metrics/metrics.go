// Package metrics defines all custom Prometheus metrics for the resource
// portal. It is the single source of truth for metric names, labels, and
// help strings; metrics register themselves with the default registry at
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ResourceMutationsTotal counts admin mutations against the resource list.
// Labels:
//   - op: "create", "update", or "delete"
//   - result: "success" or "failure"
var ResourceMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resource_mutations_total",
		Help:      "Total number of resource create/update/delete operations, by result.",
	},
	[]string{"op", "result"},
)

// DownloadsTotal counts served downloads.
// Label:
//   - kind: "file" (streamed blob) or "link" (outbound link handed back)
var DownloadsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloads_total",
		Help:      "Total number of downloads served, by source kind.",
	},
	[]string{"kind"},
)

// BlobCleanupFailuresTotal counts best-effort blob deletions that did not
// happen. These leave orphaned blobs behind and are never surfaced to users.
// Label:
//   - reason: "delete_error" or "dropped" (cleanup queue full)
var BlobCleanupFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blob_cleanup_failures_total",
		Help:      "Total number of failed or dropped background blob deletions.",
	},
	[]string{"reason"},
)

// GuardDenialsTotal counts role-guard denials on protected surfaces.
// Label:
//   - reason: "no_session", "role_unavailable", or "wrong_role"
var GuardDenialsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_denials_total",
		Help:      "Total number of role-guard denials, by reason.",
	},
	[]string{"reason"},
)
