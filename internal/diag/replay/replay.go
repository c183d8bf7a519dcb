// Package replay implements the optional write-set replay recorder
// named in SPEC_FULL.md's domain stack: when wired in, every frame's
// successfully applied write set is appended to a Redis list for an
// out-of-process tailing tool to inspect. It is strictly a
// diagnostics sink — nothing in this module ever reads the list back,
// so there is no wire format to keep stable, only a debugging
// convenience.
//
// Grounded on internal/redis's "Redis is the source of truth, RAM
// holds an index" pattern from the teacher, generalized here to the
// opposite direction: RAM (the live composition) is the source of
// truth, and Redis holds a disposable trailing log of what changed.
package replay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Sink appends write sets to a per-run Redis list.
type Sink struct {
	rdb   *redis.Client
	runID string
	log   *zap.Logger
	seq   uint64
}

// entry is the JSON shape pushed onto the list: a monotonic sequence
// number (frames can't be told apart by timestamp alone if several
// land in the same millisecond) plus the object ids written that
// frame.
type entry struct {
	Seq     uint64   `json:"seq"`
	Objects []uint64 `json:"objects"`
}

// NewSink constructs a Sink writing to compose:replay:<runID>. log may
// be nil, following this module's nil-logger-means-Nop convention.
func NewSink(rdb *redis.Client, runID string, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sink{rdb: rdb, runID: runID, log: log.Named("diag.replay")}
}

func (s *Sink) key() string { return fmt.Sprintf("compose:replay:%s", s.runID) }

// Record appends one frame's write set. Failures are logged and
// swallowed: a replay sink that could fail composition would defeat
// its own purpose as a side channel (spec.md §6's invalidation sink
// and this recorder share that "never consulted for correctness"
// property).
func (s *Sink) Record(ctx context.Context, objectIDs []uint64) {
	if s == nil || s.rdb == nil || len(objectIDs) == 0 {
		return
	}
	s.seq++
	payload, err := json.Marshal(entry{Seq: s.seq, Objects: objectIDs})
	if err != nil {
		s.log.Error("marshal replay entry", zap.Error(err))
		return
	}
	if err := s.rdb.RPush(ctx, s.key(), payload).Err(); err != nil {
		s.log.Warn("replay sink push failed", zap.Error(err), zap.String("run_id", s.runID))
	}
}
