package pool

import "sync"

// u64SlicePool reuses the scratch uint64 slice chunk_compress.go's
// buildLatentVar concatenates every page's post-delta values into before
// handing them to bins.Optimize, avoiding a large allocation per chunk when
// a caller encodes many chunks back to back, the same motivation as mebo's
// row-to-columnar transform pools.
var u64SlicePool = sync.Pool{
	New: func() any { return &[]uint64{} },
}

// GetU64Slice retrieves and resizes a uint64 slice from the pool.
//
// The returned slice has length exactly size. The caller must call the
// returned cleanup function (typically via defer) to return it to the pool.
func GetU64Slice(size int) ([]uint64, func()) {
	ptr, _ := u64SlicePool.Get().(*[]uint64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { u64SlicePool.Put(ptr) }
}
