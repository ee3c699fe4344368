package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/chrisminnick/starboard2/internal/migrations"
	"github.com/chrisminnick/starboard2/internal/models"
)

// setupTestDatabase starts Postgres, applies the migrations and returns a
// Storage bound to it.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, filepath.Join(root, "migrations")))

	return s
}

// testDataFactory creates rows for tests.
type testDataFactory struct {
	storage *Storage
}

func (f *testDataFactory) createUser(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(),
		models.NewUser("Test Writer", email, "$2a$12$hash", time.Now()))
	require.NoError(t, err)
	return u
}

func (f *testDataFactory) createProject(t *testing.T, ownerID, title string) *models.Project {
	t.Helper()
	p, err := f.storage.CreateProject(context.Background(),
		models.NewProject{Title: title, Template: models.TemplateNovel}.Build(ownerID, time.Now()))
	require.NoError(t, err)
	return p
}

func (f *testDataFactory) setContent(t *testing.T, ownerID, projectID, content string) *models.Project {
	t.Helper()
	p, err := f.storage.UpdateProject(context.Background(), ownerID, projectID,
		func(p *models.Project) (*models.Version, error) {
			return p.Apply(models.ProjectPatch{Content: &content}), nil
		})
	require.NoError(t, err)
	return p
}
