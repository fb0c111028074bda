package transfer

import (
	"io"
	"time"
)

const (
	progressEvery    = 1 << 20
	progressInterval = 500 * time.Millisecond
)

// countingReader reports the running byte count at most once per
// progressInterval or progressEvery bytes, whichever comes first.
type countingReader struct {
	r        io.Reader
	n        int64
	reported int64
	last     time.Time
	report   func(n int64)
}

func newCountingReader(r io.Reader, report func(n int64)) *countingReader {
	return &countingReader{r: r, report: report, last: time.Now()}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if n > 0 && (c.n-c.reported >= progressEvery || time.Since(c.last) >= progressInterval) {
		c.reported = c.n
		c.last = time.Now()
		c.report(c.n)
	}
	return n, err
}

func (c *countingReader) Count() int64 {
	return c.n
}
