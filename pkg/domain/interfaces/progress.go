package interfaces

// Progress reports pipeline progress to the operator. It has no effect on
// results.
type Progress interface {
	// Start creates a bar counting up to total
	Start(total int, title string) Bar
	// Stop flushes and finishes all bars
	Stop()
}

// Bar is a single progress counter
type Bar interface {
	// Increment advances the bar by one, label describing the finished item
	Increment(label string)
}
