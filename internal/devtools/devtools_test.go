package devtools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerURL(t *testing.T) {
	hostname, err := os.Hostname()
	require.NoError(t, err)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{name: "defaults", opts: Options{}, want: "http://" + hostname + ":8081"},
		{name: "https", opts: Options{Host: "localhost", Port: 8088, HTTPS: true}, want: "https://localhost:8088"},
		{name: "ipv6", opts: Options{Host: "::1", Port: 9000}, want: "http://[::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerURL(tt.opts).String())
		})
	}
}

func newDevServer(t *testing.T, handler http.HandlerFunc) *url.URL {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u
}

func TestListPages(t *testing.T) {
	base := newDevServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/list", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"id": "1-1",
			"title": "Hermes React Native",
			"description": "example-app",
			"type": "node",
			"devtoolsFrontendUrl": "devtools://devtools/bundled/js_app.html?experiments=true&ws=localhost:8081/inspector/debug?device=1&page=1",
			"webSocketDebuggerUrl": "ws://localhost:8081/inspector/debug?device=1&page=1"
		}]`))
	})

	pages, err := ListPages(context.Background(), nil, base)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Hermes React Native", pages[0].Title)
	assert.Contains(t, pages[0].DevtoolsFrontendURL, "devtools://devtools/bundled/js_app.html")
}

func TestListPages_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		base := newDevServer(t, func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		})
		_, err := ListPages(context.Background(), nil, base)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})

	t.Run("body", func(t *testing.T) {
		base := newDevServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"not": "a list"}`))
		})
		_, err := ListPages(context.Background(), nil, base)
		require.Error(t, err)
	})
}

func optionsFor(t *testing.T, base *url.URL) Options {
	t.Helper()
	port, err := strconv.Atoi(base.Port())
	require.NoError(t, err)
	return Options{Host: base.Hostname(), Port: port}
}

func stubOpenURL(t *testing.T) *[]string {
	t.Helper()
	var opened []string
	prev := openURL
	openURL = func(u string) error {
		opened = append(opened, u)
		return nil
	}
	t.Cleanup(func() { openURL = prev })
	return &opened
}

type launch struct {
	exe  string
	args []string
}

// stubBrowsers replaces the candidate list with chrome and edge, both found
// on PATH. Executables listed in failing exit non-zero; those in missing are
// not found.
func stubBrowsers(t *testing.T, failing, missing map[string]bool) *[]launch {
	t.Helper()
	var launches []launch

	prevBrowsers, prevLook, prevRun := browsers, lookPath, runBrowser
	browsers = func() []Browser {
		return []Browser{
			{Name: "chrome", Executables: []string{"google-chrome"}},
			{Name: "edge", Executables: []string{"microsoft-edge"}},
		}
	}
	lookPath = func(name string) (string, error) {
		if missing[name] {
			return "", exec.ErrNotFound
		}
		return "/usr/bin/" + name, nil
	}
	runBrowser = func(_ context.Context, exe string, args []string) error {
		launches = append(launches, launch{exe: exe, args: args})
		if failing[filepath.Base(exe)] {
			return errors.New("exit status 1")
		}
		return nil
	}
	t.Cleanup(func() { browsers, lookPath, runBrowser = prevBrowsers, prevLook, prevRun })
	return &launches
}

const frontendURL = "devtools://devtools/bundled/js_app.html?experiments=true&ws=localhost:8081/inspector/debug?device=1&page=1"

func TestOpen_ChromeWithBareURLFirst(t *testing.T) {
	opened := stubOpenURL(t)
	launches := stubBrowsers(t, nil, nil)
	root := t.TempDir()

	require.NoError(t, Open(context.Background(), Page{ID: "1", DevtoolsFrontendURL: frontendURL}, root))

	require.Len(t, *launches, 1)
	assert.Equal(t, launch{
		exe: "/usr/bin/google-chrome",
		args: []string{
			"--no-default-browser-check",
			"--no-first-run",
			"--user-data-dir=" + filepath.Join(root, "node_modules", ".cache", "rnx-devtools"),
			"devtools://devtools/bundled/js_app.html",
			frontendURL,
		},
	}, (*launches)[0])
	assert.Empty(t, *opened)
}

func TestOpen_FallsBackToEdge(t *testing.T) {
	tests := []struct {
		name    string
		failing map[string]bool
		missing map[string]bool
		want    []string
	}{
		{
			name:    "chrome exits non-zero",
			failing: map[string]bool{"google-chrome": true},
			want:    []string{"/usr/bin/google-chrome", "/usr/bin/microsoft-edge"},
		},
		{
			name:    "chrome not installed",
			missing: map[string]bool{"google-chrome": true},
			want:    []string{"/usr/bin/microsoft-edge"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubOpenURL(t)
			launches := stubBrowsers(t, tt.failing, tt.missing)

			require.NoError(t, Open(context.Background(), Page{ID: "1", DevtoolsFrontendURL: frontendURL}, t.TempDir()))

			var exes []string
			for _, l := range *launches {
				exes = append(exes, l.exe)
				assert.Equal(t, "devtools://devtools/bundled/js_app.html", l.args[3])
			}
			assert.Equal(t, tt.want, exes)
		})
	}
}

func TestOpen_NoBrowser(t *testing.T) {
	t.Run("devtools frontend", func(t *testing.T) {
		opened := stubOpenURL(t)
		stubBrowsers(t, map[string]bool{"google-chrome": true, "microsoft-edge": true}, nil)

		err := Open(context.Background(), Page{ID: "1", DevtoolsFrontendURL: frontendURL}, t.TempDir())
		require.ErrorIs(t, err, ErrNoBrowser)
		assert.Contains(t, err.Error(), "edge")
		assert.Empty(t, *opened, "devtools:// URLs never go to the default browser")
	})

	t.Run("http frontend uses default browser", func(t *testing.T) {
		opened := stubOpenURL(t)
		stubBrowsers(t, nil, map[string]bool{"google-chrome": true, "microsoft-edge": true})

		require.NoError(t, Open(context.Background(), Page{ID: "1", DevtoolsFrontendURL: "http://frontend/a"}, t.TempDir()))
		assert.Equal(t, []string{"http://frontend/a"}, *opened)
	})
}

func TestLaunchTargets(t *testing.T) {
	assert.Equal(t, []string{"http://frontend/a"}, launchTargets("http://frontend/a"))
	assert.Equal(t, []string{"http://frontend/a", "http://frontend/a?ws=1"}, launchTargets("http://frontend/a?ws=1"))
}

func TestBrowsers_ChromeBeforeEdge(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows"} {
		t.Run(goos, func(t *testing.T) {
			got := Browsers(goos)
			require.Len(t, got, 2)
			assert.Equal(t, "chrome", got[0].Name)
			assert.Equal(t, "edge", got[1].Name)
			for _, b := range got {
				assert.NotEmpty(t, b.Executables)
			}
		})
	}
}

func TestOpenFirst(t *testing.T) {
	launches := stubBrowsers(t, nil, nil)
	base := newDevServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": "a", "devtoolsFrontendUrl": "devtools://frontend/a"}, {"id": "b", "devtoolsFrontendUrl": "devtools://frontend/b"}]`))
	})
	page, err := OpenFirst(context.Background(), nil, optionsFor(t, base), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "a", page.ID)
	require.Len(t, *launches, 1)
	assert.Equal(t, "devtools://frontend/a", (*launches)[0].args[3])
}

func TestOpenFirst_NoPages(t *testing.T) {
	launches := stubBrowsers(t, nil, nil)
	base := newDevServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	_, err := OpenFirst(context.Background(), nil, optionsFor(t, base), t.TempDir())
	assert.True(t, errors.Is(err, ErrNoPages))
	assert.Empty(t, *launches)
}

func TestOpen_RequiresFrontendURL(t *testing.T) {
	opened := stubOpenURL(t)
	launches := stubBrowsers(t, nil, nil)
	require.Error(t, Open(context.Background(), Page{ID: "x"}, t.TempDir()))
	assert.Empty(t, *opened)
	assert.Empty(t, *launches)
}
