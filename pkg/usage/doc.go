// Package usage counts how much of a metered activity a user has consumed in
// the current billing period.
//
// Counts are computed from the domain records themselves (interviews, AI
// sessions, CVs, cover letters) on every call; nothing is cached or persisted
// here. A Store answers "how many records of kind K does user U own created at
// or after T", and the Accountant validates counter names and normalises store
// failures into ErrStorageUnavailable so callers can fail closed.
package usage
