package river_test

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goriver "github.com/riverqueue/river"

	_ "modernc.org/sqlite"

	riveradapter "github.com/neomorfeo/dataflex/internal/adapter/river"
	"github.com/neomorfeo/dataflex/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbPath := t.TempDir() + "/river_test.db"
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		t.Fatalf("setting WAL: %v", err)
	}

	return db
}

func startClient(t *testing.T, client *riveradapter.Client) {
	t.Helper()

	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("river start: %v", err)
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			t.Errorf("river stop: %v", err)
		}
	})
}

func testAgent() domain.Agent {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	return domain.Agent{
		ID:              "a-42",
		AgentCode:       "DFA123456007",
		Email:           "ama@example.com",
		Status:          domain.StatusActive,
		PlanID:          "quarterly",
		SubscriptionEnd: &end,
	}
}

func TestPublisher_Publish_EnqueuesJob(t *testing.T) {
	db := setupTestDB(t)
	client, err := riveradapter.Setup(context.Background(), db, riveradapter.Options{})
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	// Subscribe to job completions before starting so we don't miss events.
	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()

	startClient(t, client)

	pub := riveradapter.NewPublisher(client)
	if err := pub.Publish(context.Background(), domain.EventApprove, testAgent()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case event := <-subscribeChan:
		if event.Job.Kind != "agent.lifecycle" {
			t.Errorf("job kind = %q, want %q", event.Job.Kind, "agent.lifecycle")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

func TestPublisher_Publish_PreservesEventData(t *testing.T) {
	db := setupTestDB(t)
	client, err := riveradapter.Setup(context.Background(), db, riveradapter.Options{MaxWorkers: 1})
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()

	startClient(t, client)

	pub := riveradapter.NewPublisher(client)
	if err := pub.Publish(context.Background(), domain.EventApprove, testAgent()); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case event := <-subscribeChan:
		args := string(event.Job.EncodedArgs)
		for _, want := range []string{`"event":"approve"`, `"agent_id":"a-42"`, `"agent_code":"DFA123456007"`, `"status":"active"`, `"subscription_end":"2024-03-31T00:00:00Z"`} {
			if !strings.Contains(args, want) {
				t.Errorf("encoded args missing %s, got: %s", want, args)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for job completion")
	}
}

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) PurgeRevokedSessions(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	return 3, nil
}

func TestSetup_PurgesSessionsOnStart(t *testing.T) {
	db := setupTestDB(t)
	purger := &countingPurger{}
	client, err := riveradapter.Setup(context.Background(), db, riveradapter.Options{Purger: purger})
	if err != nil {
		t.Fatalf("river setup: %v", err)
	}

	subscribeChan, subscribeCancel := client.Subscribe(goriver.EventKindJobCompleted)
	defer subscribeCancel()

	startClient(t, client)

	select {
	case event := <-subscribeChan:
		if event.Job.Kind != "sessions.purge" {
			t.Errorf("job kind = %q, want %q", event.Job.Kind, "sessions.purge")
		}
		if purger.calls.Load() != 1 {
			t.Errorf("purger called %d times, want 1", purger.calls.Load())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for purge job")
	}
}
