package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
)

// ByteProgress shows a per-item download bar. The zero value and a
// non-interactive progress pass data through untouched.
type ByteProgress struct {
	bar *progressbar.ProgressBar
}

// NewByteProgress creates a byte-counting bar. A negative size renders a
// spinner, since Content-Length is not always known.
func (p *Printer) NewByteProgress(size int64, description string) *ByteProgress {
	if !p.Interactive() {
		return &ByteProgress{}
	}
	if size <= 0 {
		size = -1
	}
	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
	)
	return &ByteProgress{bar: bar}
}

// Wrap returns a reader that advances the bar as r is consumed
func (b *ByteProgress) Wrap(r io.Reader) io.Reader {
	if b == nil || b.bar == nil {
		return r
	}
	return io.TeeReader(r, b.bar)
}

// Finish clears the bar
func (b *ByteProgress) Finish() {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Finish()
}

// StatusTracker keeps running totals for a grab run
type StatusTracker struct {
	mu         sync.Mutex
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	StartTime  time.Time
	now        func() time.Time
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{StartTime: time.Now(), now: time.Now}
}

// RecordDownload counts a saved item and its size
func (st *StatusTracker) RecordDownload(n int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Downloaded++
	st.Bytes += n
}

// RecordSkip counts an item that already existed on disk
func (st *StatusTracker) RecordSkip() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Skipped++
}

// RecordFailure counts an item that could not be fetched or saved
func (st *StatusTracker) RecordFailure() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Failed++
}

// Elapsed returns the time since tracking started
func (st *StatusTracker) Elapsed() time.Duration {
	return st.now().Sub(st.StartTime)
}

// Summary renders the totals, e.g. "3 downloaded (1.2 MB), 1 skipped, 0 failed in 2s"
func (st *StatusTracker) Summary() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return fmt.Sprintf("%d downloaded (%s), %d skipped, %d failed in %s",
		st.Downloaded, humanize.Bytes(uint64(st.Bytes)), st.Skipped, st.Failed,
		st.Elapsed().Round(time.Second))
}

// FormatSize renders a byte count for item lines; unknown sizes render as "?"
func FormatSize(n int64) string {
	if n < 0 {
		return "?"
	}
	return humanize.Bytes(uint64(n))
}
