// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package distribute shares grid-wide point identities between workers.
// Worker 0 resolves the duplicate corners of the whole grid once and serves
// them over a websocket; every other worker asks for its own corner range in
// a single request/response exchange.
package distribute

import (
	"context"
	"fmt"
	"net/http"

	"github.com/2dChan/icongrid/cdi"
	"github.com/2dChan/icongrid/dedup"
	"github.com/2dChan/icongrid/mesherr"
	"github.com/2dChan/icongrid/partition"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Identity maps each corner of a range to a grid-wide unique point.
type Identity struct {
	// Index[i] is the global point of corner BeginPoint+i.
	Index     []int `json:"index"`
	NumUnique int   `json:"num_unique"`
}

// Fetcher returns the identity of the corners in a partition range.
type Fetcher interface {
	Fetch(ctx context.Context, r partition.Range) (*Identity, error)
}

type request struct {
	BeginPoint int `json:"begin_point"`
	EndPoint   int `json:"end_point"`
}

type response struct {
	Identity
	Error string `json:"error,omitempty"`
}

// Server holds the identity of every corner of a grid. It serves it to
// other workers and answers Fetch locally.
type Server struct {
	ids      *dedup.Result
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

// NewServer resolves the duplicate corners of the whole of src.
func NewServer(src cdi.Source, log logrus.FieldLogger, opts ...dedup.Option) (*Server, error) {
	corners, err := src.Corners(0, src.NumCells())
	if err != nil {
		return nil, err
	}
	if corners, err = corners.Radians(); err != nil {
		return nil, err
	}
	ids, err := dedup.Resolve(corners.Points(), opts...)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"corners": ids.NumOriginal,
		"unique":  ids.NumUnique,
	}).Info("distribute: resolved grid point identities")
	return &Server{
		ids: ids,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Fetch returns the identity of the corners in r without a round trip.
func (s *Server) Fetch(_ context.Context, r partition.Range) (*Identity, error) {
	return s.lookup(r.BeginPoint, r.EndPoint)
}

func (s *Server) lookup(begin, end int) (*Identity, error) {
	if end < begin {
		return &Identity{Index: []int{}, NumUnique: s.ids.NumUnique}, nil
	}
	if begin < 0 || end >= len(s.ids.Index) {
		return nil, fmt.Errorf("distribute: points [%d %d] out of range [0 %d): %w",
			begin, end, len(s.ids.Index), mesherr.ErrPartitionRangeInvalid)
	}
	return &Identity{
		Index:     append([]int(nil), s.ids.Index[begin:end+1]...),
		NumUnique: s.ids.NumUnique,
	}, nil
}

// ServeHTTP answers a single identity request per connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("distribute: websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req request
	if err := conn.ReadJSON(&req); err != nil {
		s.log.WithError(err).Warn("distribute: reading request")
		return
	}
	var resp response
	id, err := s.lookup(req.BeginPoint, req.EndPoint)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Identity = *id
	}
	s.log.WithFields(logrus.Fields{
		"begin": req.BeginPoint,
		"end":   req.EndPoint,
	}).Debug("distribute: served identity request")
	if err := conn.WriteJSON(resp); err != nil {
		s.log.WithError(err).Warn("distribute: writing response")
	}
}

// Client fetches identities from a Server at URL, a ws:// address.
type Client struct {
	URL    string
	Dialer *websocket.Dialer
}

func NewClient(url string) *Client {
	return &Client{URL: url, Dialer: websocket.DefaultDialer}
}

func (c *Client) Fetch(ctx context.Context, r partition.Range) (*Identity, error) {
	conn, _, err := c.Dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("distribute: dialing %s: %w", c.URL, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	if err := conn.WriteJSON(request{BeginPoint: r.BeginPoint, EndPoint: r.EndPoint}); err != nil {
		return nil, fmt.Errorf("distribute: sending request: %w", err)
	}
	var resp response
	if err := conn.ReadJSON(&resp); err != nil {
		return nil, fmt.Errorf("distribute: reading response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("distribute: server: %s", resp.Error)
	}
	if want := max(r.NumPoints(), 0); len(resp.Index) != want {
		return nil, fmt.Errorf("distribute: got %d identities for %d points: %w",
			len(resp.Index), want, mesherr.ErrDimensionMismatch)
	}
	return &resp.Identity, nil
}
