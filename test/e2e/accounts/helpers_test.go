package accounts_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/tukcommunity/backend/internal/accounts/app"
	"github.com/tukcommunity/backend/internal/accounts/service"
	"github.com/tukcommunity/backend/pkg/authsdk"
	"github.com/tukcommunity/backend/pkg/jwtx"
)

/*
 * Container setup and helpers for the accounts end-to-end tests. MySQL (and
 * Redis where asked for) run in containers; the API itself runs in-process
 * behind httptest so every test exercises the real wiring.
 */

const (
	mysqlImage        = "mysql:8.0"
	redisImage        = "redis:7-alpine"
	mysqlRootPassword = "e2e-root-password"
	mysqlDatabase     = "tuk_community"

	adminEmail    = "admin@tukorea.ac.kr"
	adminPassword = "Admin-password-1"
)

type environment struct {
	client *authsdk.SDKClient
	app    *app.Application
}

func startContainer(t *testing.T, req testcontainers.ContainerRequest) (string, int) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, nat.Port(req.ExposedPorts[0]))
	require.NoError(t, err)
	port, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	return host, port
}

func startMySQL(t *testing.T) (string, int) {
	t.Helper()
	return startContainer(t, testcontainers.ContainerRequest{
		Image:        mysqlImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": mysqlRootPassword,
			"MYSQL_DATABASE":      mysqlDatabase,
		},
		// The entrypoint starts a temporary server first; the second
		// "ready for connections" line belongs to the real one.
		WaitingFor: wait.ForAll(
			wait.ForLog("ready for connections").WithOccurrence(2),
			wait.ForListeningPort("3306/tcp"),
		).WithDeadline(3 * time.Minute),
	})
}

func startRedis(t *testing.T) string {
	t.Helper()
	host, port := startContainer(t, testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
	})
	return fmt.Sprintf("%s:%d", host, port)
}

// setupEnvironment starts MySQL (and Redis when withRedis is set), applies
// the schema and serves the API in-process.
func setupEnvironment(t *testing.T, withRedis bool) *environment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}

	host, port := startMySQL(t)

	cfg := app.Config{
		Env:                 app.EnvLocal,
		LogLevel:            "warn",
		LogFormat:           "json",
		ShutdownGracePeriod: 5 * time.Second,
		MetricsEnabled:      true,
		DB: app.DBConfig{
			Engine:          app.EngineMySQL,
			Name:            mysqlDatabase,
			User:            "root",
			Password:        mysqlRootPassword,
			Host:            host,
			Port:            port,
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Minute,
			ApplyMigrations: true,
		},
		SecretKey:              "e2e-signing-secret",
		Issuer:                 "tukcommunity-e2e",
		AccessTTL:              jwtx.DefaultAccessTokenTTL,
		RefreshTTL:             jwtx.DefaultRefreshTokenTTL,
		BlacklistAfterRotation: true,
		Blacklist:              app.BlacklistConfig{Backend: app.BlacklistSQL},
		PasswordMinLength:      8,
		HousekeepingInterval:   time.Hour,
	}
	if withRedis {
		cfg.Blacklist = app.BlacklistConfig{Backend: app.BlacklistRedis, RedisAddr: startRedis(t)}
	}

	// MySQL can still refuse connections for a moment after the log line.
	var application *app.Application
	require.Eventually(t, func() bool {
		var err error
		application, err = app.New(cfg)
		if err != nil {
			t.Logf("application not ready: %v", err)
		}
		return err == nil
	}, time.Minute, 2*time.Second)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		_ = application.Shutdown()
	})

	return &environment{
		client: authsdk.NewSDKClient(server.URL),
		app:    application,
	}
}

// signupUser registers a user with a unique email and student number.
func signupUser(t *testing.T, env *environment, n int64, password string) string {
	t.Helper()
	email := fmt.Sprintf("student%d@tukorea.ac.kr", n)
	_, err := env.client.Signup(t.Context(), authsdk.SignupRequest{
		Email:      email,
		Password:   password,
		StudentNum: 2024000000 + n,
		Department: "컴퓨터공학부",
	})
	require.NoError(t, err)
	return email
}

// createAdmin creates an administrator the way the createsuperuser command does.
func createAdmin(t *testing.T, env *environment) {
	t.Helper()
	svc := &service.SuperuserService{Store: env.app.Store()}
	_, _, err := svc.CreateSuperuser(t.Context(), service.SuperuserInput{
		Email:      adminEmail,
		Password:   adminPassword,
		StudentNum: 2000000001,
		Department: "관리팀",
	})
	require.NoError(t, err)
}

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}
