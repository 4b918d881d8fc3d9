//go:build integration

package usage

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var sharedDB *DB

// TestMain sets up a shared PostgreSQL container for the ledger tests.
func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port())
	sharedDB, err = NewDB(ctx, dsn, 1, 4, 10*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create DB: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	sharedDB.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func TestPGRecorder_RecordIncrements(t *testing.T) {
	ctx := context.Background()
	r := NewPGRecorder(sharedDB)

	if err := r.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Migrate is idempotent.
	if err := r.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	for range 3 {
		if err := r.Record(ctx, "integration"); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	n, err := r.Calls(ctx, "integration", time.Now())
	if err != nil {
		t.Fatalf("Calls: %v", err)
	}
	if n != 3 {
		t.Errorf("Calls() = %d, want 3", n)
	}

	n, err = r.Calls(ctx, "other-service", time.Now())
	if err != nil {
		t.Fatalf("Calls: %v", err)
	}
	if n != 0 {
		t.Errorf("Calls(other) = %d, want 0", n)
	}
}

func TestDB_Ping(t *testing.T) {
	if err := sharedDB.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
