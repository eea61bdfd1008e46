//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/estatehub/auth-service/internal/model"
	repo "github.com/estatehub/auth-service/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "estatehub_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/estatehub_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func createTestUser(ctx context.Context, t *testing.T, ur *repo.UserRepository, username, email string) model.User {
	t.Helper()

	saved, err := ur.Create(ctx, model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:         model.RoleUser,
		IsActive:     true,
	})
	require.NoError(t, err)
	return saved
}

func TestUserRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)

	saved := createTestUser(ctx, t, ur, "alice", "alice@example.com")
	require.NotZero(t, saved.ID)
	require.Equal(t, model.RoleUser, saved.Role)
	require.True(t, saved.IsActive)

	byID, err := ur.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)

	byUsername, err := ur.GetByIdentifier(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, saved.ID, byUsername.ID)

	byEmail, err := ur.GetByIdentifier(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, saved.ID, byEmail.ID)

	_, err = ur.GetByID(ctx, saved.ID+100000)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = ur.GetByIdentifier(ctx, "nobody")
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUserRepository_DuplicateConstraints(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	createTestUser(ctx, t, ur, "bob", "bob@example.com")

	_, err = ur.Create(ctx, model.User{Username: "bob", Email: "bob2@example.com", PasswordHash: "h", Role: model.RoleUser, IsActive: true})
	var valErr *model.ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Contains(t, valErr.Message, "username")

	_, err = ur.Create(ctx, model.User{Username: "bob2", Email: "bob@example.com", PasswordHash: "h", Role: model.RoleUser, IsActive: true})
	require.ErrorAs(t, err, &valErr)
	require.Contains(t, valErr.Message, "email")
}

func TestUserRepository_UpdatePasswordHash(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	saved := createTestUser(ctx, t, ur, "carol", "carol@example.com")

	err = ur.UpdatePasswordHash(ctx, saved.ID, saved.PasswordHash, "new-hash")
	require.NoError(t, err)

	// A second update against the stale hash loses the compare-and-swap.
	err = ur.UpdatePasswordHash(ctx, saved.ID, saved.PasswordHash, "other-hash")
	require.ErrorIs(t, err, model.ErrNotFound)

	got, err := ur.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
}

func TestRefreshTokenRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	tr := repo.NewRefreshTokenRepository(conn)
	owner := createTestUser(ctx, t, ur, "dave", "dave@example.com")

	created, err := tr.Create(ctx, owner.ID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, created.Token)
	require.Equal(t, owner.ID, created.UserID)
	require.Nil(t, created.RevokedAt)
	require.True(t, created.Active(time.Now()))

	got, err := tr.GetByToken(ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = tr.GetByToken(ctx, "unknown-token")
	require.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, tr.Revoke(ctx, created.Token, "logout"))
	revoked, err := tr.GetByToken(ctx, created.Token)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
	require.Equal(t, "logout", *revoked.RevokedBy)

	// Revoking again keeps the original actor.
	require.NoError(t, tr.Revoke(ctx, created.Token, "rotation"))
	again, err := tr.GetByToken(ctx, created.Token)
	require.NoError(t, err)
	require.Equal(t, "logout", *again.RevokedBy)
}

func TestRefreshTokenRepository_Rotate(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	tr := repo.NewRefreshTokenRepository(conn)
	owner := createTestUser(ctx, t, ur, "erin", "erin@example.com")

	created, err := tr.Create(ctx, owner.ID, time.Hour)
	require.NoError(t, err)

	rotated, err := tr.Rotate(ctx, created.Token, "rotation", owner.ID, time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, created.Token, rotated.Token)

	old, err := tr.GetByToken(ctx, created.Token)
	require.NoError(t, err)
	require.NotNil(t, old.RevokedAt)
	require.Equal(t, "rotation", *old.RevokedBy)

	// Rotating the already-revoked token must fail.
	_, err = tr.Rotate(ctx, created.Token, "rotation", owner.ID, time.Hour)
	require.ErrorIs(t, err, model.ErrTokenRevoked)
}

func TestRefreshTokenRepository_ConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConnection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ur := repo.NewUserRepository(conn)
	tr := repo.NewRefreshTokenRepository(conn)
	owner := createTestUser(ctx, t, ur, "frank", "frank@example.com")

	created, err := tr.Create(ctx, owner.ID, time.Hour)
	require.NoError(t, err)

	const workers = 8
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = tr.Rotate(ctx, created.Token, "rotation", owner.ID, time.Hour)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, model.ErrTokenRevoked)
	}
	require.Equal(t, 1, succeeded)
}
