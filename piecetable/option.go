package piecetable

// DefaultBufferSize is the largest chunk a single insert appends to a backing buffer.
const DefaultBufferSize = 64 * 1024

// MinBufferSize is the smallest accepted buffer size. Smaller values are raised to it.
const MinBufferSize = 16

// DefaultSearchCacheSize is the number of resolved lookups remembered by a Table.
const DefaultSearchCacheSize = 1

type BufferSize interface {
	BufferSize() int
}

type SearchCacheSize interface {
	SearchCacheSize() int
}

func getBufferSize(opt any) int {
	if o, ok := opt.(BufferSize); ok {
		if size := o.BufferSize(); size > 0 {
			return max(size, MinBufferSize)
		}
	}
	return DefaultBufferSize
}

func getSearchCacheSize(opt any) int {
	if o, ok := opt.(SearchCacheSize); ok {
		if size := o.SearchCacheSize(); size > 0 {
			return size
		}
	}
	return DefaultSearchCacheSize
}
