package media

import (
	"io"
	"net/http"
)

// drainLimit bounds how much unread body Close discards to keep the connection reusable
const drainLimit = 32 << 10

// Task is one fetched item: a live response body plus its naming context.
// The caller must Close it.
type Task struct {
	body        io.ReadCloser
	naming      NamingContext
	size        int64
	contentType string
	closed      bool
}

func newTask(location string, resp *http.Response) *Task {
	return &Task{
		body:        resp.Body,
		naming:      NewNamingContext(location, resp.Header.Get("Content-Disposition")),
		size:        resp.ContentLength,
		contentType: resp.Header.Get("Content-Type"),
	}
}

// Read reads from the response body
func (t *Task) Read(p []byte) (int, error) {
	return t.body.Read(p)
}

// Close releases the response body. It is safe to call more than once.
func (t *Task) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	_, _ = io.CopyN(io.Discard, t.body, drainLimit)
	return t.body.Close()
}

// Context returns the naming context of the item
func (t *Task) Context() NamingContext {
	return t.naming
}

// Location is shorthand for Context().Location
func (t *Task) Location() string {
	return t.naming.Location
}

// Size is the Content-Length of the item, or -1 when unknown
func (t *Task) Size() int64 {
	return t.size
}

// ContentType is the media type reported by the server
func (t *Task) ContentType() string {
	return t.contentType
}
