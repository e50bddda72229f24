package textbuf

import "log/slog"

// DefaultReduceThreshold is the batch size above which untracked edit batches
// are collapsed into a single edit.
const DefaultReduceThreshold = 1000

type ReduceThreshold interface {
	ReduceThreshold() int
}

type Logger interface {
	Logger() *slog.Logger
}

func getReduceThreshold(opt any) int {
	if o, ok := opt.(ReduceThreshold); ok {
		if n := o.ReduceThreshold(); n > 0 {
			return n
		}
	}
	return DefaultReduceThreshold
}

func getLogger(opt any) *slog.Logger {
	if o, ok := opt.(Logger); ok {
		if l := o.Logger(); l != nil {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}
