package shm

import "runtime"

// yieldToWriter gives the writer a chance to finish its in-progress publish
// before the reader retries its snapshot.
func yieldToWriter() { runtime.Gosched() }
