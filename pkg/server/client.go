package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/bastiangx/pickserve/pkg/resolve"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrClosed is returned once the client or its connection is closed.
var ErrClosed = errors.New("server connection closed")

// RemoteError is an error reported by the server.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// Client talks to a Server over a reader/writer pair. It is safe for
// concurrent use and implements resolve.Fetcher.
type Client struct {
	reader *bufio.Reader
	writer io.Writer
	logger *log.Logger

	wmu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan Response
	err     error

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closeOnce sync.Once
}

var _ resolve.Fetcher = (*Client)(nil)

// NewClient starts reading responses from r. Requests are written to w.
func NewClient(r io.Reader, w io.Writer) *Client {
	c := &Client{
		reader:  bufio.NewReader(r),
		writer:  w,
		logger:  logger.New("client"),
		pending: make(map[string]chan Response),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// WaitReady blocks until the server has sent its ready signal.
func (c *Client) WaitReady(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	case <-c.done:
		return c.closedErr()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fetch runs a search or label lookup on the server.
func (c *Client) Fetch(ctx context.Context, q resolve.Query, limit int, selected []string) ([]option.Option, error) {
	req := Request{
		Op:       OpFetch,
		Limit:    limit,
		Selected: selected,
	}
	if q.IsLookup() {
		req.Lookup = true
		req.Values = q.Values
	} else {
		req.Query = q.Text
	}

	resp, err := c.call(ctx, req)
	if err != nil {
		return nil, err
	}
	opts := make([]option.Option, len(resp.Options))
	for i, r := range resp.Options {
		opts[i] = r.Option()
	}
	return opts, nil
}

// Search returns ranked results with their highlight spans.
func (c *Client) Search(ctx context.Context, query string, limit int, lang string) ([]Result, error) {
	resp, err := c.call(ctx, Request{Op: OpFetch, Query: query, Limit: limit, Language: lang})
	if err != nil {
		return nil, err
	}
	return resp.Options, nil
}

// Stats asks the server for its counters.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	resp, err := c.call(ctx, Request{Op: OpStats})
	if err != nil {
		return nil, err
	}
	if resp.Stats == nil {
		return nil, fmt.Errorf("stats response without stats")
	}
	return resp.Stats, nil
}

// Reload asks the server to reread its catalog and returns the option count.
func (c *Client) Reload(ctx context.Context) (int, error) {
	resp, err := c.call(ctx, Request{Op: OpReload})
	if err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// Close fails pending requests with ErrClosed and closes the writer when it
// is an io.Closer.
func (c *Client) Close() error {
	c.fail(ErrClosed)
	if closer, ok := c.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// call sends req under a fresh id and waits for its response. When ctx ends
// first a cancel frame is sent and ctx's error returned.
func (c *Client) call(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	req.ID = uuid.NewString()
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return Response{}, err
	}
	c.pending[req.ID] = ch
	c.mu.Unlock()

	if err := c.write(req); err != nil {
		c.forget(req.ID)
		return Response{}, fmt.Errorf("send %s: %w", req.Op, err)
	}

	select {
	case resp := <-ch:
		switch resp.Status {
		case StatusError:
			return resp, &RemoteError{Code: resp.Code, Message: resp.Error}
		case StatusCancelled:
			return resp, context.Canceled
		}
		return resp, nil
	case <-ctx.Done():
		c.forget(req.ID)
		if err := c.write(Request{ID: req.ID, Op: OpCancel}); err != nil {
			c.logger.Debug("cancel not sent", "id", req.ID, "err", err)
		}
		return Response{}, ctx.Err()
	case <-c.done:
		return Response{}, c.closedErr()
	}
}

func (c *Client) write(req Request) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return writeFrame(c.writer, req)
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop routes response frames to their waiting calls.
func (c *Client) readLoop() {
	for {
		body, err := readFrame(c.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrClosed
			}
			c.fail(err)
			return
		}

		var resp Response
		if err := msgpack.Unmarshal(body, &resp); err != nil {
			c.logger.Error("Unmarshaling response", "err", err)
			continue
		}

		if resp.ID == "" {
			if resp.Status == StatusReady {
				c.readyOnce.Do(func() { close(c.ready) })
			} else {
				c.logger.Warn("server error without request id", "code", resp.Code, "err", resp.Error)
			}
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("dropping response for abandoned request", "id", resp.ID, "status", resp.Status)
			continue
		}
		ch <- resp
	}
}

// fail records the first terminal error and wakes every waiter.
func (c *Client) fail(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.pending = make(map[string]chan Response)
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		return ErrClosed
	}
	return c.err
}
