package bridge

import (
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/corebridge/corebridge/cothread"
)

// Recorder emits the stable-prefix log records spec §6 defines, to w, and
// mirrors every line through a structured cothread.Logger tagged with a
// per-run correlation id. The cooperative runtime only ever has one goroutine
// active at a time, but Recorder may also be read by a concurrent watcher
// (see metrics.go), so writes are still serialized.
type Recorder struct {
	mu     sync.Mutex
	w      io.Writer
	logger cothread.Logger
	runID  string
}

// NewRecorder builds a Recorder writing to w, stamped with a fresh run id.
func NewRecorder(w io.Writer, logger cothread.Logger) *Recorder {
	if logger == nil {
		logger = cothread.NopLogger{}
	}
	return &Recorder{w: w, logger: logger, runID: uuid.NewString()}
}

func (r *Recorder) line(msg string) {
	r.mu.Lock()
	fmt.Fprintln(r.w, msg)
	r.mu.Unlock()
}

func (r *Recorder) Arrive(c *Car) {
	r.line(fmt.Sprintf("[Arrive] Car %d [%s] from %s side", c.ID, c.Type, c.Direction))
	r.logger.Log(cothread.LevelInfo, "car arrived", "run_id", r.runID, "car", c.ID, "type", c.Type.String(), "direction", c.Direction.String())
}

func (r *Recorder) Enter(c *Car) {
	r.line(fmt.Sprintf("[Enter ] Car %d [%s] from %s side", c.ID, c.Type, c.Direction))
	r.logger.Log(cothread.LevelInfo, "car entered", "run_id", r.runID, "car", c.ID, "type", c.Type.String(), "direction", c.Direction.String())
}

func (r *Recorder) Exit(c *Car) {
	r.line(fmt.Sprintf("[Exit  ] Car %d [%s] from %s side", c.ID, c.Type, c.Direction))
	r.logger.Log(cothread.LevelInfo, "car exited", "run_id", r.runID, "car", c.ID, "type", c.Type.String(), "direction", c.Direction.String())
}

// SignalFlip logs the SIGNAL-policy direction change. The Spanish wording
// is load-bearing: scenario S3 matches this exact text.
func (r *Recorder) SignalFlip(dir Direction) {
	r.line(fmt.Sprintf("[Signal] Cambio de sentido: %s", dir))
	r.logger.Log(cothread.LevelInfo, "signal actor flipped direction", "run_id", r.runID, "direction", dir.String())
}

func (r *Recorder) SignalMaintain(dir Direction) {
	r.line(fmt.Sprintf("[Signal] Maintaining direction: %s", dir))
	r.logger.Log(cothread.LevelDebug, "signal actor maintained direction", "run_id", r.runID, "direction", dir.String())
}

// EquityChange logs the EQUITY scheduling-induced direction flip — distinct
// from the SIGNAL policy's own flip line.
func (r *Recorder) EquityChange(dir Direction) {
	r.line(fmt.Sprintf("[EQUITY] Changing direction to: %s", dir))
	r.logger.Log(cothread.LevelInfo, "equity window exhausted, direction changed", "run_id", r.runID, "direction", dir.String())
}

func (r *Recorder) EmergencyOverride(c *Car, secondsRemaining float64) {
	r.line(fmt.Sprintf("[EMERGENCY OVERRIDE] Car %d forcing entry with %.0f seconds remaining to deadline", c.ID, secondsRemaining))
	r.logger.Log(cothread.LevelWarn, "emergency override", "run_id", r.runID, "car", c.ID, "seconds_remaining", secondsRemaining)
}

func (r *Recorder) QueueHeadMismatch(err error) {
	r.line(fmt.Sprintf("[ERROR] queue-head mismatch: %v", err))
	r.logger.Log(cothread.LevelError, "queue head mismatch", "run_id", r.runID, "err", err)
}

func (r *Recorder) RRExceeded(carID uint64) {
	r.line(fmt.Sprintf("[RR] Car %d exceeded time slice", carID))
	r.logger.Log(cothread.LevelInfo, "round robin time slice exceeded", "run_id", r.runID, "car", carID)
}

func (r *Recorder) Banner(msg string) {
	r.line(msg)
}
