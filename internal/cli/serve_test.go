package cli

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adyen/booksearch/internal/config"
	"github.com/adyen/booksearch/internal/storefront"
)

// mockHandler creates a simple test handler
func mockHandler(response string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(response))
	})
}

// createTestDeps creates ServerDependencies with mock handlers for testing
func createTestDeps(port string) ServerDependencies {
	return ServerDependencies{
		ServerConfig:  config.ServerConfig{Port: port},
		HomeHandler:   mockHandler("home"),
		SearchHandler: mockHandler("search"),
	}
}

// startTestServer starts a server with the given dependencies and returns listener, server, and port
func startTestServer(t *testing.T, deps ServerDependencies) (net.Listener, *http.Server, int) {
	t.Helper()
	listener, server, err := StartServer(deps)
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	return listener, server, port
}

// httpGet makes an HTTP GET request and returns response body and status
func httpGet(t *testing.T, url string) (string, int) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err, url)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return string(body), resp.StatusCode
}

func TestStartServer_AllRoutesWork(t *testing.T) {
	// GIVEN
	listener, server, port := startTestServer(t, createTestDeps("0"))
	defer listener.Close()
	defer server.Close()
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	// THEN
	testCases := []struct {
		path     string
		expected string
	}{
		{"/", "home"},
		{"/s?field-keywords=Java", "search"},
		{"/anything-else", "home"},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			body, status := httpGet(t, baseURL+tc.path)
			assert.Equal(t, http.StatusOK, status)
			assert.Equal(t, tc.expected, body)
		})
	}
}

func TestStartServer_InvalidPort(t *testing.T) {
	// GIVEN
	deps := createTestDeps("99999")

	// WHEN
	listener, server, err := StartServer(deps)

	// THEN
	if !assert.Error(t, err) {
		listener.Close()
		server.Close()
	}
}

func TestStartServer_PortAlreadyInUse(t *testing.T) {
	// GIVEN a port somebody else holds
	existing, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer existing.Close()
	port := existing.Addr().(*net.TCPAddr).Port

	// WHEN
	listener, server, err := StartServer(createTestDeps(fmt.Sprintf("%d", port)))

	// THEN
	if !assert.Error(t, err) {
		listener.Close()
		server.Close()
	}
}

func TestStartServer_ServesTheStorefront(t *testing.T) {
	// GIVEN the real storefront handlers
	home, err := storefront.NewHomeHandler()
	require.NoError(t, err)
	search, err := storefront.NewSearchHandler(storefront.DefaultCatalog())
	require.NoError(t, err)
	deps := ServerDependencies{
		ServerConfig:  config.ServerConfig{Port: "0"},
		HomeHandler:   home,
		SearchHandler: search,
	}

	// WHEN
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	defer server.Close()

	// THEN the search form and the Java results are served
	body, status := httpGet(t, fmt.Sprintf("http://localhost:%d/", port))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `id="twotabsearchtextbox"`)

	body, status = httpGet(t, fmt.Sprintf("http://localhost:%d/s?field-keywords=Java&url=search-alias%%3Dstripbooks-intl-ship", port))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Head First Java: A Brain-Friendly Guide")
}

func TestWaitForShutdown_Signals(t *testing.T) {
	for _, sig := range []os.Signal{syscall.SIGTERM, syscall.SIGINT} {
		t.Run(sig.String(), func(t *testing.T) {
			// GIVEN
			listener, server, _ := startTestServer(t, createTestDeps("0"))
			defer listener.Close()
			core, logs := observer.New(zap.InfoLevel)
			shutdown := make(chan os.Signal, 1)

			// WHEN
			errCh := make(chan error, 1)
			go func() {
				errCh <- WaitForShutdown(server, shutdown, zap.New(core))
			}()
			shutdown <- sig

			// THEN
			select {
			case err := <-errCh:
				assert.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("WaitForShutdown did not complete")
			}
			assert.Equal(t, 1, logs.FilterMessage("storefront stopped").Len())
		})
	}
}

func TestWaitForShutdown_WithActiveRequests(t *testing.T) {
	// GIVEN a request in flight
	deps := createTestDeps("0")
	deps.SearchHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte("done"))
	})
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()

	requestComplete := make(chan error, 1)
	go func() {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d/s", port))
		if err == nil {
			resp.Body.Close()
		}
		requestComplete <- err
	}()
	time.Sleep(50 * time.Millisecond)

	// WHEN
	shutdown := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- WaitForShutdown(server, shutdown, nil)
	}()
	shutdown <- syscall.SIGTERM

	// THEN the request completes before the server stops
	select {
	case err := <-requestComplete:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("Request did not complete in time")
	}
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForShutdown did not complete")
	}
}

func TestWaitForShutdownWithTimeout_ForcesClose(t *testing.T) {
	// GIVEN a handler that outlives the shutdown timeout
	deps := createTestDeps("0")
	deps.HomeHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	})
	listener, server, port := startTestServer(t, deps)
	defer listener.Close()
	go http.Get(fmt.Sprintf("http://localhost:%d/", port))
	time.Sleep(50 * time.Millisecond)

	// WHEN
	shutdown := make(chan os.Signal, 1)
	shutdown <- syscall.SIGTERM
	err := WaitForShutdownWithTimeout(server, shutdown, time.Nanosecond, nil)

	// THEN the server is closed without error
	assert.NoError(t, err)
	_, getErr := http.Get(fmt.Sprintf("http://localhost:%d/", port))
	assert.Error(t, getErr)
}

func TestRunServe_FullIntegration(t *testing.T) {
	// GIVEN
	errCh := make(chan error, 1)
	go func() {
		errCh <- RunServe(createTestDeps("0"))
	}()
	time.Sleep(100 * time.Millisecond)

	// WHEN the process is asked to stop
	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(syscall.SIGTERM))

	// THEN
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Server did not shut down within timeout")
	}
}

func TestRunServe_StartupFailure(t *testing.T) {
	err := RunServe(createTestDeps("99999"))

	assert.ErrorContains(t, err, "failed to create listener")
}

func TestServerShutdown_StopsResponding(t *testing.T) {
	listener, server, port := startTestServer(t, createTestDeps("0"))
	defer listener.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	_, err := http.Get(fmt.Sprintf("http://localhost:%d/", port))
	assert.Error(t, err)
}
