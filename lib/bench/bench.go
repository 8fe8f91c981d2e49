package bench

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/netlat/netlat/lib/logger"
	"github.com/netlat/netlat/lib/payload"
	"github.com/netlat/netlat/lib/stats"
)

var log = logger.New("bench")

// runRoundTrips performs repeat timed round trips over a byte stream:
// write the full payload to w, then block until exactly len(payload) reply
// bytes have been read from r. The send and receive side may be the same
// connection (latency client) or two separate legs (duplex tester).
//
// Both buffers are allocated once and reused for every iteration. A reply
// that differs from the sent payload aborts the run with an error.
func runRoundTrips(w io.Writer, r io.Reader, gen payload.Generator, dataSize, repeat int, rec stats.Recorder) error {
	data := make([]byte, dataSize)
	recv := make([]byte, dataSize)

	for i := 0; i < repeat; i++ {
		gen.Fill(data)

		start := time.Now()
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("iteration %d: send failed: %v", i, err)
		}
		if _, err := io.ReadFull(r, recv); err != nil {
			return fmt.Errorf("iteration %d: receive failed: %v", i, err)
		}
		elapsed := time.Since(start)

		if !bytes.Equal(data, recv) {
			return fmt.Errorf("iteration %d: reply differs from sent payload", i)
		}

		rec.Record(elapsed)
	}

	return nil
}
