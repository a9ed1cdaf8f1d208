package usage

import "slices"

// Counter names a metered activity.
type Counter string

const (
	CounterInterviews   Counter = "interviews"   // interviews where the user is the candidate
	CounterAISessions   Counter = "aiSessions"   // AI mock interview sessions run by the user
	CounterCVs          Counter = "cvs"          // resumes uploaded or generated
	CounterCoverLetters Counter = "coverLetters" // cover letters generated
)

var knownCounters = []Counter{
	CounterInterviews,
	CounterAISessions,
	CounterCVs,
	CounterCoverLetters,
}

// KnownCounters returns every counter the accountant recognises.
func KnownCounters() []Counter {
	return slices.Clone(knownCounters)
}

// Valid reports whether c is a recognised counter.
func (c Counter) Valid() bool {
	return slices.Contains(knownCounters, c)
}
