package statsfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ligastats/ligastats/internal/platform/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Token:      "secret-token",
		Timeout:    2 * time.Second,
	})
	return client, server
}

func TestListMatches_MapsPayload(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_token") != "secret-token" {
			t.Errorf("missing api_token query param")
		}
		if r.URL.Query().Get("upto_matchday") != "3" {
			t.Errorf("unexpected upto_matchday: %q", r.URL.Query().Get("upto_matchday"))
		}
		_, _ = w.Write([]byte(`{"data":[{
			"id":"m-1","matchday":1,
			"home_team_id":"team-a","away_team_id":"team-b",
			"home_goals":2,"away_goals":1,"played":true,
			"intensity":85,
			"events":[{"type":"goal","minute":12,"player_id":"p-1","team_id":"team-a"}],
			"lineups":[{"team_id":"team-a","player_id":"p-1","player_name":"Ana","starter":true}]
		}]}`))
	})

	matches, err := client.ListMatches(context.Background(), "grp-1", 3)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one match, got=%d", len(matches))
	}

	match := matches[0]
	if match.GroupID != "grp-1" {
		t.Fatalf("unexpected group id: %q", match.GroupID)
	}
	if match.HomeGoals == nil || *match.HomeGoals != 2 {
		t.Fatalf("unexpected home goals: %v", match.HomeGoals)
	}
	if match.Intensity == nil || *match.Intensity != 85 {
		t.Fatalf("unexpected intensity: %v", match.Intensity)
	}
	if len(match.Events) != 1 || match.Events[0].MatchID != "m-1" {
		t.Fatalf("unexpected events: %+v", match.Events)
	}
	if len(match.Lineups) != 1 || !match.Lineups[0].Starter {
		t.Fatalf("unexpected lineups: %+v", match.Lineups)
	}
}

func TestListMatches_SkipsMalformedRows(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"id":"","matchday":1,"home_team_id":"a","away_team_id":"b"},
			{"id":"m-2","matchday":1,"home_team_id":"a","away_team_id":"b"}
		]}`))
	})

	matches, err := client.ListMatches(context.Background(), "grp-1", 0)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "m-2" {
		t.Fatalf("expected only the valid row, got=%+v", matches)
	}
}

func TestListMatches_KeepsMatchWithIncompleteRows(t *testing.T) {
	t.Parallel()

	// A lineup row without a player id (and an odd event row) must not cost
	// the whole match; the scoring engine skips such rows individually.
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{
			"id":"m-1","matchday":1,
			"home_team_id":"team-a","away_team_id":"team-b",
			"home_goals":1,"away_goals":0,"played":true,
			"events":[{"type":"goal","minute":40,"team_id":"team-a"}],
			"lineups":[
				{"team_id":"team-a","player_id":"p-1","starter":true},
				{"team_id":"team-a","starter":true}
			]
		}]}`))
	})

	matches, err := client.ListMatches(context.Background(), "grp-1", 0)
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected the match kept, got=%+v", matches)
	}
	if len(matches[0].Lineups) != 2 {
		t.Fatalf("expected both lineup rows mapped, got=%+v", matches[0].Lineups)
	}
	if matches[0].Lineups[1].PlayerID != "" {
		t.Fatalf("expected empty player id preserved for the engine to skip, got=%+v", matches[0].Lineups[1])
	}
	if len(matches[0].Events) != 1 || matches[0].Events[0].PlayerID != "" {
		t.Fatalf("expected event row mapped as-is, got=%+v", matches[0].Events)
	}
}

func TestDoJSON_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	client.maxRetries = 1

	if _, err := client.ListGroups(context.Background()); err != nil {
		t.Fatalf("expected retry to succeed: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got=%d", calls.Load())
	}
}

func TestDoJSON_DoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	client.maxRetries = 3

	if _, err := client.ListGroups(context.Background()); err == nil {
		t.Fatalf("expected error for 404 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got=%d", calls.Load())
	}
}

func TestDoJSON_CircuitOpenRejectsRequest(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.circuitEnabled = true
	client.breaker = resilience.NewBreaker(resilience.BreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
	})

	if _, err := client.ListGroups(context.Background()); err == nil {
		t.Fatalf("expected first call to fail")
	}
	_, err := client.ListGroups(context.Background())
	if err == nil || !strings.Contains(err.Error(), "circuit open") {
		t.Fatalf("expected circuit-open rejection, got=%v", err)
	}
}

func TestSanitizeSensitiveText_RedactsToken(t *testing.T) {
	t.Parallel()

	out := sanitizeSensitiveText(`dial tcp: api_token=secret-token refused`, "secret-token")
	if strings.Contains(out, "secret-token") {
		t.Fatalf("token leaked into error text: %q", out)
	}
}

func TestRedactAPIURL(t *testing.T) {
	t.Parallel()

	out := redactAPIURL("https://feed.example.com/v1/groups?api_token=abc123&include=events")
	if strings.Contains(out, "abc123") {
		t.Fatalf("token leaked into url: %q", out)
	}
	if !strings.Contains(out, "api_token=REDACTED") {
		t.Fatalf("expected redacted token marker: %q", out)
	}
}
