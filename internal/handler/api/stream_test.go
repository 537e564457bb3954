package api

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ExoVista/internal/domain/models"
	"ExoVista/internal/service/stream"
	"ExoVista/internal/services/disposition"
)

func TestStream(t *testing.T) {
	srv := httptest.NewServer(newTestEcho(WithPingInterval(time.Second)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := stream.New("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/stream", time.Second)
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	replies, errs := c.Read(ctx)

	seed := uint64(7)
	if err := c.Send(stream.Request{Observation: hotJupiter, Seed: &seed}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := c.Send(stream.Request{Observation: models.Observation{Period: -1, TransitDepth: 0.3, PlanetRadius: 10}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	var got []stream.Reply
	for len(got) < 2 {
		select {
		case r, ok := <-replies:
			if !ok {
				t.Fatalf("stream closed early")
			}
			got = append(got, r)
		case err := <-errs:
			t.Fatalf("stream error: %v", err)
		case <-ctx.Done():
			t.Fatalf("timed out waiting for replies")
		}
	}

	want := disposition.NewClassifier().ClassifyWithSeed(hotJupiter, 7)
	if got[0].Report == nil || got[0].Report.ConfidenceScores != want.ConfidenceScores {
		t.Fatalf("unexpected first reply %+v", got[0])
	}
	if got[1].Err == "" || got[1].Report != nil {
		t.Fatalf("expected error reply, got %+v", got[1])
	}
}
