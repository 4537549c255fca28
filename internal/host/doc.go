// Package host models the remote asset tracking objects shothook reads and
// writes, and defines the Client contract implemented by the ftrack API client.
//
// Nothing here caches host state. Every call is a round trip, and callers
// treat the host as the source of truth for tasks, versions, and statuses.
package host
