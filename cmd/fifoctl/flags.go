package main

import "time"

// Flag structs decouple cobra from the handlers for testing.

type WriteFlags struct {
	Timeout time.Duration
}

type ReadFlags struct {
	Timeout time.Duration
}

type CleanupFlags struct {
	Grace time.Duration
}

type HistoryFlags struct {
	Limit int
}
