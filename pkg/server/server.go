package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/bastiangx/pickserve/pkg/catalog"
	"github.com/bastiangx/pickserve/pkg/config"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Server handles the IPC for option fetches
type Server struct {
	catalog *catalog.Catalog
	reader  *bufio.Reader
	writer  io.Writer
	logger  *log.Logger

	wmu sync.Mutex

	mu      sync.Mutex
	limits  config.ServerConfig
	pending map[string]context.CancelFunc

	served atomic.Uint64
}

// NewServer creates a server using stdin/stdout for IPC
func NewServer(cat *catalog.Catalog, limits config.ServerConfig) *Server {
	return NewServerWithIO(cat, limits, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server on any reader/writer pair.
func NewServerWithIO(cat *catalog.Catalog, limits config.ServerConfig, r io.Reader, w io.Writer) *Server {
	return &Server{
		catalog: cat,
		reader:  bufio.NewReader(r),
		writer:  w,
		logger:  logger.New("server"),
		limits:  limits,
		pending: make(map[string]context.CancelFunc),
	}
}

// SetLimits replaces the request limits. Running requests keep the old ones.
func (s *Server) SetLimits(limits config.ServerConfig) {
	s.mu.Lock()
	s.limits = limits
	s.mu.Unlock()
	s.logger.Debug("limits updated", "max_limit", limits.MaxLimit, "min_query", limits.MinQuery, "max_query", limits.MaxQuery)
}

func (s *Server) currentLimits() config.ServerConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits
}

// Serve sends the ready signal, then reads requests until the input ends or
// ctx is done. At most Workers fetches run at once and the rest wait for a
// slot. Serve waits for running fetches before returning.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Debug("Starting Server.")
	if err := s.send(Response{Status: StatusReady}); err != nil {
		return fmt.Errorf("send ready: %w", err)
	}

	workers := s.currentLimits().Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(workers))

	frames := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		for {
			body, err := readFrame(s.reader)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case frames <- body:
			case <-gctx.Done():
				return
			}
		}
	}()

	var err error
loop:
	for {
		select {
		case <-gctx.Done():
			err = gctx.Err()
			break loop
		case err = <-readErr:
			if errors.Is(err, io.EOF) {
				err = nil
			} else {
				s.logger.Error("Reading request", "err", err)
			}
			break loop
		case body := <-frames:
			s.dispatch(gctx, g, sem, body)
		}
	}

	s.cancelAll()
	if werr := g.Wait(); werr != nil && err == nil {
		err = werr
	}
	s.logger.Debug("Server stopped", "served", s.served.Load())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// dispatch decodes one frame and routes it by op. It never blocks on busy
// workers, so cancel frames reach their request while fetches queue.
func (s *Server) dispatch(ctx context.Context, g *errgroup.Group, sem *semaphore.Weighted, body []byte) {
	var req Request
	if err := msgpack.Unmarshal(body, &req); err != nil {
		s.logger.Error("Unmarshaling request", "err", err)
		s.sendError("", "Invalid msgpack request", CodeBadRequest)
		return
	}

	switch req.Op {
	case OpFetch:
		if req.ID == "" {
			s.sendError("", "Missing request id", CodeBadRequest)
			return
		}
		rctx, ok := s.register(ctx, req.ID)
		if !ok {
			s.sendError(req.ID, fmt.Sprintf("Request %s already running", req.ID), CodeConflict)
			return
		}
		g.Go(func() error {
			defer s.unregister(req.ID)
			if err := sem.Acquire(rctx, 1); err != nil {
				s.send(Response{ID: req.ID, Status: StatusCancelled})
				s.logger.Debug("Request cancelled while queued", "id", req.ID)
				return nil
			}
			defer sem.Release(1)
			s.handleFetch(rctx, req)
			return nil
		})
	case OpCancel:
		s.cancel(req.ID)
	case OpStats:
		s.handleStats(req)
	case OpReload:
		s.handleReload(req)
	default:
		s.sendError(req.ID, fmt.Sprintf("Unknown op: %s", req.Op), CodeBadRequest)
	}
}

func (s *Server) register(ctx context.Context, id string) (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.pending[id]; dup {
		return nil, false
	}
	rctx, cancel := context.WithCancel(ctx)
	s.pending[id] = cancel
	return rctx, true
}

func (s *Server) unregister(id string) {
	s.mu.Lock()
	cancel, ok := s.pending[id]
	delete(s.pending, id)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

// cancel aborts a running request. Unknown ids are ignored: the request
// may have finished already.
func (s *Server) cancel(id string) {
	s.mu.Lock()
	cancel, ok := s.pending[id]
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("cancel for unknown request", "id", id)
		return
	}
	cancel()
}

func (s *Server) cancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cancel := range s.pending {
		cancel()
	}
}

func (s *Server) inFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// handleFetch validates a fetch request, runs it against the catalog and
// sends the ranked options.
func (s *Server) handleFetch(ctx context.Context, req Request) {
	limits := s.currentLimits()
	start := time.Now()

	if !req.Lookup && !utils.IsValidQuery(req.Query, limits.MinQuery, limits.MaxQuery) {
		s.sendError(req.ID, fmt.Sprintf("Query length must be between %d and %d characters", limits.MinQuery, limits.MaxQuery), CodeBadRequest)
		s.logger.Debug("Query out of bounds", "id", req.ID, "query", req.Query)
		return
	}

	limit := req.Limit
	if limit < 1 || (limits.MaxLimit > 0 && limit > limits.MaxLimit) {
		limit = limits.MaxLimit
	}

	var matches []option.Match
	if req.Lookup {
		for _, o := range s.catalog.Resolve(utils.Dedup(req.Values)) {
			matches = append(matches, option.Unscored(o))
		}
	} else {
		matches = s.catalog.Search(req.Query, limit, req.Language)
	}

	if err := ctx.Err(); err != nil {
		s.send(Response{ID: req.ID, Status: StatusCancelled})
		s.logger.Debug("Request cancelled", "id", req.ID)
		return
	}

	results := toResults(matches)
	s.served.Add(1)
	s.send(Response{
		ID:        req.ID,
		Status:    StatusOK,
		Options:   results,
		Count:     len(results),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

func (s *Server) handleStats(req Request) {
	st := s.catalog.Stats()
	s.send(Response{
		ID:     req.ID,
		Status: StatusOK,
		Stats: &Stats{
			Options:   st.Options,
			IndexKeys: st.IndexKeys,
			Path:      st.Path,
			LoadedAt:  st.LoadedAt.Unix(),
			Served:    s.served.Load(),
			InFlight:  s.inFlight(),
		},
	})
}

func (s *Server) handleReload(req Request) {
	start := time.Now()
	if err := s.catalog.Reload(); err != nil {
		s.logger.Error("Reloading catalog", "err", err)
		s.sendError(req.ID, err.Error(), CodeInternal)
		return
	}
	s.send(Response{
		ID:        req.ID,
		Status:    StatusOK,
		Count:     s.catalog.Len(),
		TimeTaken: time.Since(start).Microseconds(),
	})
}

// send writes one response frame. Writes from concurrent fetches are
// serialized so frames never interleave.
func (s *Server) send(resp Response) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := writeFrame(s.writer, resp); err != nil {
		s.logger.Error("Writing response", "id", resp.ID, "err", err)
		return err
	}
	return nil
}

func (s *Server) sendError(id, message string, code int) {
	s.send(Response{ID: id, Status: StatusError, Error: message, Code: code})
}

// toResults attaches 1-based ranks to already sorted matches.
func toResults(matches []option.Match) []Result {
	ranks := utils.CreateRankList(len(matches))
	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			Label:    m.Label,
			Value:    m.Value,
			Icon:     m.Icon,
			Disabled: m.Disabled,
			Divider:  m.Divider,
			Rank:     ranks[i],
			Score:    m.Score,
			Matched:  m.Matched,
			Slices:   m.Slices,
		}
	}
	return results
}
