package auth_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/tuckshop/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for session service end-to-end tests.
 * This includes container setup, account operations, and assertions.
 */

const (
	testImageName = "tuckshop-auth-test:latest"

	adminEmail    = "admin@tuckshop.test"
	adminUsername = "admin"
	adminPassword = "Admin123Pass"

	userPassword = "Sup3rSecret"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building session service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up session service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

// buildDockerImage builds the test Docker image.
func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

// cleanupDockerImage removes the test Docker image.
func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_ACCESS_SECRET":  "e2e-access-secret-0123456789abcdef",
		"AUTH_REFRESH_SECRET": "e2e-refresh-secret-0123456789abcdef",
		"AUTH_ISSUER":         "tuckshop",
		"AUTH_AUDIENCE":       "tuckshop-api",
		"AUTH_COOKIE_SECURE":  "false",
		"DATABASE_DRIVER":     "sqlite",
		"DATABASE_FILE":       "/data/tuckshop.db",
		"ADMIN_EMAIL":         adminEmail,
		"ADMIN_USERNAME":      adminUsername,
		"ADMIN_PASSWORD":      adminPassword,
		"ENV":                 "test",
		"LOG_LEVEL":           "info",
		"LOG_FORMAT":          "json",
	}
}

// relaxedRateLimits keeps rapid test traffic under the limiter.
func relaxedRateLimits() map[string]string {
	return map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	}
}

// setupAuthContainer starts the service with relaxed rate limits and returns
// its base URL. extra overrides the default environment.
func setupAuthContainer(t *testing.T, extra ...map[string]string) string {
	t.Helper()

	env := baseEnv()
	maps.Copy(env, relaxedRateLimits())
	for _, e := range extra {
		maps.Copy(env, e)
	}
	return startContainer(t, env)
}

// setupAuthContainerWithDefaultRateLimits starts the service with the
// production limits. Only the rate limit tests should need it.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) string {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/readyz").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

// registerUser creates a customer account and returns its session.
func registerUser(t *testing.T, client *authsdk.SDKClient, username string) (*authsdk.Session, authsdk.User) {
	t.Helper()

	session, resp, err := client.Register(t.Context(), authsdk.RegisterRequest{
		Email:     username + "@tuckshop.test",
		Username:  username,
		Password:  userPassword,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err, "Register should succeed")
	require.NotNil(t, session)
	require.NotEmpty(t, session.RefreshToken(), "Refresh cookie should be set")

	return session, resp.User
}

// loginAdmin signs in as the seeded administrator.
func loginAdmin(t *testing.T, client *authsdk.SDKClient) *authsdk.Session {
	t.Helper()

	session, resp, err := client.Login(t.Context(), adminUsername, adminPassword)
	require.NoError(t, err, "Admin login should succeed")
	require.Equal(t, "ADMIN", resp.User.Role)

	return session
}

// assertKind verifies err is a service error of the given kind.
func assertKind(t *testing.T, err error, kind authsdk.Kind, context string) {
	t.Helper()
	require.Error(t, err, context)
	require.True(t, authsdk.IsKind(err, kind), "%s - expected %s, got: %v", context, kind, err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
