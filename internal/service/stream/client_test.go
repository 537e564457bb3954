package stream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"ExoVista/internal/domain/models"
)

// echoServer answers each frame before reading the next one, the way the
// disposition endpoint does. Every seventh frame gets an error reply.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for n := 0; ; n++ {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			f := replyFrame{}
			if n%7 == 6 {
				f.Error = "rejected " + strconv.Itoa(n)
			} else {
				f.ContextualPlacement = strconv.FormatFloat(req.Period, 'f', -1, 64)
			}
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestExchangeLargeBatch(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := New(wsURL(srv), time.Second)
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	const n = 20000
	reqs := make([]Request, n)
	for i := range reqs {
		reqs[i] = Request{Observation: models.Observation{Period: float64(i + 1), PlanetRadius: 1, TransitDepth: 0.1}}
	}

	var got, want []string
	for i := 0; i < n; i++ {
		if i%7 == 6 {
			want = append(want, "err:rejected "+strconv.Itoa(i))
		} else {
			want = append(want, strconv.Itoa(i+1))
		}
	}
	err := c.Exchange(ctx, reqs, func(r Reply) error {
		if r.Err != "" {
			got = append(got, "err:"+r.Err)
			return nil
		}
		got = append(got, r.Report.ContextualPlacement)
		return nil
	})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("replies mismatch (-want +got):\n%s", diff)
	}
}

func TestExchangeStopsOnCallbackError(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := New(wsURL(srv), time.Second)
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	boom := errors.New("write failed")
	calls := 0
	err := c.Exchange(ctx, make([]Request, 10), func(Reply) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback ran %d times after failing", calls)
	}
}

func TestSendTimesOutWhenPeerStopsReading(t *testing.T) {
	done := make(chan struct{})
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		<-done
	}))
	defer srv.Close()
	defer close(done)

	c := New(wsURL(srv), time.Minute)
	c.writeTimeout = 50 * time.Millisecond
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	req := Request{Observation: models.Observation{Period: 1}, Mode: strings.Repeat("x", 4096)}
	deadline := time.Now().Add(20 * time.Second)
	for time.Now().Before(deadline) {
		if err := c.Send(req); err != nil {
			var ne interface{ Timeout() bool }
			if !errors.As(err, &ne) || !ne.Timeout() {
				t.Fatalf("expected timeout error, got %v", err)
			}
			return
		}
	}
	t.Fatalf("send never timed out against a stalled peer")
}
