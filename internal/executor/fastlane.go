package executor

// FastLaneThreshold is the file-size cutoff below which the Executor
// bypasses CDC chunking and delta computation entirely and does a direct
// stream copy instead (spec §4.8).
const FastLaneThreshold = 8 * 1024

// FastLaneConcurrency names a fast-lane concurrency bound. The Executor does
// not consult it: fast-lane copies run on the main worker pool, so at most
// parallelism of them are in flight at once.
const FastLaneConcurrency = 256
