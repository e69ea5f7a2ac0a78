// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package distribute

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2dChan/icongrid/cdi"
	"github.com/2dChan/icongrid/mesherr"
	"github.com/2dChan/icongrid/partition"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestServer_Fetch(t *testing.T) {
	srv := mustNewServer(t)
	tests := []struct {
		name  string
		piece int
		want  []int
	}{
		{"first piece", 0, []int{0, 1, 2}},
		{"second piece", 1, []int{1, 3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := partition.Compute(2, 3, tt.piece, 2)
			if err != nil {
				t.Fatalf("partition.Compute(...) error = %v, want nil", err)
			}
			id, err := srv.Fetch(context.Background(), r)
			if err != nil {
				t.Fatalf("srv.Fetch(...) error = %v, want nil", err)
			}
			if diff := cmp.Diff(tt.want, id.Index); diff != "" {
				t.Errorf("id.Index mismatch (-want +got):\n%s", diff)
			}
			if id.NumUnique != 4 {
				t.Errorf("id.NumUnique = %d, want 4", id.NumUnique)
			}
		})
	}
}

func TestServer_FetchOutOfRange(t *testing.T) {
	srv := mustNewServer(t)
	_, err := srv.Fetch(context.Background(), partition.Range{BeginPoint: 3, EndPoint: 6})
	if !errors.Is(err, mesherr.ErrPartitionRangeInvalid) {
		t.Errorf("srv.Fetch(...) error = %v, want ErrPartitionRangeInvalid", err)
	}
}

func TestClient_RoundTrip(t *testing.T) {
	srv := mustNewServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := NewClient("ws" + strings.TrimPrefix(ts.URL, "http"))

	all, err := partition.All(2, 3, 2)
	if err != nil {
		t.Fatalf("partition.All(...) error = %v, want nil", err)
	}
	for i, r := range all {
		got, err := c.Fetch(ctx, r)
		if err != nil {
			t.Fatalf("c.Fetch(piece %d) error = %v, want nil", i, err)
		}
		want, err := srv.Fetch(ctx, r)
		if err != nil {
			t.Fatalf("srv.Fetch(piece %d) error = %v, want nil", i, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("c.Fetch(piece %d) mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(mustNewServer(t))
	defer ts.Close()

	c := NewClient("ws" + strings.TrimPrefix(ts.URL, "http"))
	if _, err := c.Fetch(context.Background(), partition.Range{BeginPoint: 0, EndPoint: 99}); err == nil {
		t.Errorf("c.Fetch(...) error = nil, want non-nil")
	}
}

func TestClient_EmptyRange(t *testing.T) {
	ts := httptest.NewServer(mustNewServer(t))
	defer ts.Close()

	c := NewClient("ws" + strings.TrimPrefix(ts.URL, "http"))
	id, err := c.Fetch(context.Background(), partition.Range{BeginCell: 0, EndCell: -1, BeginPoint: 0, EndPoint: -1})
	if err != nil {
		t.Fatalf("c.Fetch(empty) error = %v, want nil", err)
	}
	if len(id.Index) != 0 || id.NumUnique != 4 {
		t.Errorf("c.Fetch(empty) = %+v, want no indices and 4 unique", id)
	}
}

func TestClient_DialError(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/")
	if _, err := c.Fetch(context.Background(), partition.Range{}); err == nil {
		t.Errorf("c.Fetch(...) error = nil, want non-nil")
	}
}

func TestNewServer_LogsSummary(t *testing.T) {
	log, hook := test.NewNullLogger()
	if _, err := NewServer(twoTriangles(t), log); err != nil {
		t.Fatalf("NewServer(...) error = %v, want nil", err)
	}
	e := hook.LastEntry()
	if e == nil {
		t.Fatalf("hook.LastEntry() = nil, want an entry")
	}
	if e.Data["unique"] != 4 || e.Data["corners"] != 6 {
		t.Errorf("entry data = %v, want 6 corners and 4 unique", e.Data)
	}
}

// Helpers

// twoTriangles returns two triangles sharing the edge between corners 1
// and 2 of the first one.
func twoTriangles(t *testing.T) *cdi.Memory {
	t.Helper()
	m, err := cdi.NewMemory(
		[]float64{0, 10, 0, 10, 10, 0},
		[]float64{0, 0, 10, 0, 10, 10},
		3, cdi.Degrees)
	if err != nil {
		t.Fatalf("cdi.NewMemory(...) error = %v, want nil", err)
	}
	return m
}

func mustNewServer(t *testing.T) *Server {
	t.Helper()
	log, _ := test.NewNullLogger()
	srv, err := NewServer(twoTriangles(t), log)
	if err != nil {
		t.Fatalf("NewServer(...) error = %v, want nil", err)
	}
	return srv
}
