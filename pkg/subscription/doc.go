// Package subscription holds the per-user subscription record written by the
// billing webhook processor and read by the session provider.
//
// A user has at most one record, keyed by user id. Users without a record, and
// users whose subscription is no longer active, are on the FREE tier; see
// Subscription.EffectiveTier.
package subscription
