package media

import (
	stderrors "errors"
	"iter"

	"imgrab/pkg/errors"
	"imgrab/pkg/logger"
	"imgrab/pkg/transport"
)

// ErrDone is returned by Next once every page has been consumed
var ErrDone = stderrors.New("no more tasks")

// TaskProvider turns an accessor's pages into a flat stream of Tasks. A page is
// fetched only after every location of the previous page has been handed out.
//
// A TaskProvider is not safe for concurrent use.
type TaskProvider struct {
	client   transport.Getter
	accessor Accessor
	pending  []string
	done     bool
	logger   logger.Logger
}

// NewTaskProvider takes ownership of accessor. No request is made until Next.
func NewTaskProvider(accessor Accessor, client transport.Getter, log logger.Logger) *TaskProvider {
	return &TaskProvider{
		client:   client,
		accessor: accessor,
		logger:   logger.OrNop(log).WithField("source", accessor.ID()),
	}
}

// Next returns the next task. A failed item comes back as an *errors.ItemError
// and the following call moves on to the next location. A page failure ends
// the stream: it is returned once and ErrDone follows.
func (tp *TaskProvider) Next() (*Task, error) {
	for {
		if len(tp.pending) > 0 {
			location := tp.pending[0]
			tp.pending[0] = ""
			tp.pending = tp.pending[1:]
			return tp.Open(location)
		}

		if tp.done {
			return nil, ErrDone
		}

		page, err := tp.accessor.NextPage(tp.client)
		if err != nil {
			tp.done = true
			tp.logger.WithError(err).Warn("page fetch failed")
			return nil, err
		}
		if len(page) == 0 {
			tp.done = true
			tp.logger.Debug("source exhausted")
			return nil, ErrDone
		}

		tp.logger.DebugWithFields("page fetched", map[string]interface{}{
			"locations": len(page),
		})
		tp.pending = append([]string(nil), page...)
	}
}

// Open fetches a single location. Next uses it for queued locations; callers
// use it directly to re-issue an item that failed.
func (tp *TaskProvider) Open(location string) (*Task, error) {
	resp, err := tp.client.Get(location)
	if err != nil {
		tp.logger.WithError(err).WithField("location", location).Warn("item fetch failed")
		return nil, &errors.ItemError{Location: location, Err: err}
	}
	return newTask(location, resp), nil
}

// All yields every result of Next until ErrDone, including per-item errors.
// Breaking out of the loop leaves the remaining locations unfetched.
func (tp *TaskProvider) All() iter.Seq2[*Task, error] {
	return func(yield func(*Task, error) bool) {
		for {
			task, err := tp.Next()
			if stderrors.Is(err, ErrDone) {
				return
			}
			if !yield(task, err) {
				return
			}
		}
	}
}

// Pending is the number of queued locations not yet handed out
func (tp *TaskProvider) Pending() int {
	return len(tp.pending)
}

// Close drops queued locations and ends the stream
func (tp *TaskProvider) Close() {
	tp.pending = nil
	tp.done = true
}
