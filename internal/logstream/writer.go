package logstream

import (
	"bytes"
	"sync"
)

// LineWriter is an io.Writer that publishes each complete output line as a
// StepOutput event. Partial lines are buffered until terminated or flushed.
type LineWriter struct {
	broker *Broker
	proto  Event

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLineWriter creates a writer whose events copy the identifying fields
// of proto (run, workflow, job, step).
func NewLineWriter(broker *Broker, proto Event) *LineWriter {
	proto.Kind = StepOutput
	return &LineWriter{broker: broker, proto: proto}
}

// Write implements io.Writer.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line; keep it buffered for the next write.
			w.buf.WriteString(line)
			break
		}
		w.publish(line[:len(line)-1])
	}
	return len(p), nil
}

// Flush publishes any buffered partial line. Call it once the step is done.
func (w *LineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.publish(w.buf.String())
		w.buf.Reset()
	}
}

func (w *LineWriter) publish(line string) {
	ev := w.proto
	ev.Line = line
	w.broker.Publish(ev)
}
