// Package sessions stores the context an action resolves on its first launch
// so the form submission that follows can reuse it. Entries are keyed by the
// action correlation id and expire after the configured TTL.
package sessions
