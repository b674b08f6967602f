// Package devtools finds the apps connected to a running dev server and
// opens the debugger frontend for them in a browser.
package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/browser"
)

// DefaultPort is the dev server port used when none is configured.
const DefaultPort = 8081

// ErrNoPages means no app is connected to the dev server.
var ErrNoPages = errors.New("no apps connected to the dev server")

// Options locate the dev server.
type Options struct {
	Host  string `koanf:"host"`
	Port  int    `koanf:"port"`
	HTTPS bool   `koanf:"https"`
}

// Page is one debuggable target reported by the dev server.
type Page struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	Type                 string `json:"type"`
	FaviconURL           string `json:"faviconUrl,omitempty"`
	DevtoolsFrontendURL  string `json:"devtoolsFrontendUrl"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ServerURL returns the dev server base URL. An empty host means this
// machine's hostname.
func ServerURL(opts Options) *url.URL {
	scheme := "http"
	if opts.HTTPS {
		scheme = "https"
	}
	host := opts.Host
	if host == "" {
		if h, err := os.Hostname(); err == nil && h != "" {
			host = h
		} else {
			host = "localhost"
		}
	}
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}
	return &url.URL{Scheme: scheme, Host: net.JoinHostPort(host, strconv.Itoa(port))}
}

// ListPages fetches the connected pages from base's /json/list endpoint. A nil
// client means http.DefaultClient.
func ListPages(ctx context.Context, client *http.Client, base *url.URL) ([]Page, error) {
	if client == nil {
		client = http.DefaultClient
	}
	u := *base
	u.Path = "/json/list"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach dev server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dev server returned %s", resp.Status)
	}
	var pages []Page
	if err := json.NewDecoder(resp.Body).Decode(&pages); err != nil {
		return nil, fmt.Errorf("invalid page list: %w", err)
	}
	return pages, nil
}

// ErrNoBrowser means no candidate browser could open the debugger frontend.
var ErrNoBrowser = errors.New("no browser could open the debugger")

// Browser is a candidate for hosting the debugger frontend. Only Chromium
// based browsers understand devtools:// URLs.
type Browser struct {
	Name string
	// Executables are tried in order; the first one found is launched.
	Executables []string
}

// Browsers returns the candidates for goos, in the order they are tried.
func Browsers(goos string) []Browser {
	switch goos {
	case "darwin":
		return []Browser{
			{Name: "chrome", Executables: []string{"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome"}},
			{Name: "edge", Executables: []string{"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge"}},
		}
	case "windows":
		return []Browser{
			{Name: "chrome", Executables: []string{
				"chrome.exe",
				`C:\Program Files\Google\Chrome\Application\chrome.exe`,
				`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			}},
			{Name: "edge", Executables: []string{
				"msedge.exe",
				`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
			}},
		}
	default:
		return []Browser{
			{Name: "chrome", Executables: []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}},
			{Name: "edge", Executables: []string{"microsoft-edge", "microsoft-edge-stable"}},
		}
	}
}

// Swapped out in tests.
var (
	lookPath   = exec.LookPath
	runBrowser = func(ctx context.Context, exe string, args []string) error {
		return exec.CommandContext(ctx, exe, args...).Run() //nolint:gosec // exe comes from the fixed candidate list
	}
	openURL  = browser.OpenURL
	browsers = func() []Browser { return Browsers(runtime.GOOS) }
)

// UserDataDir is the browser profile used for the debugger, kept apart from
// the user's own profile.
func UserDataDir(projectRoot string) string {
	return filepath.Join(projectRoot, "node_modules", ".cache", "rnx-devtools")
}

// launchTargets returns the URLs handed to the browser. The debugger fails
// with NotAllowedToLoadLocalResource unless the bare frontend page has been
// loaded once, so the URL without its query goes first.
func launchTargets(frontend string) []string {
	bare, _, hasQuery := strings.Cut(frontend, "?")
	if !hasQuery {
		return []string{frontend}
	}
	return []string{bare, frontend}
}

// Open launches the debugger frontend for page. Chrome is tried first, then
// Edge, each with a dedicated profile under projectRoot; a browser that
// cannot be found or exits non-zero moves on to the next one. An http(s)
// frontend falls back to the default browser.
func Open(ctx context.Context, page Page, projectRoot string) error {
	frontend := page.DevtoolsFrontendURL
	if frontend == "" {
		return fmt.Errorf("page %q has no devtools frontend URL", page.ID)
	}

	args := append([]string{
		"--no-default-browser-check",
		"--no-first-run",
		"--user-data-dir=" + UserDataDir(projectRoot),
	}, launchTargets(frontend)...)

	var errs []error
	for _, b := range browsers() {
		exe, err := findExecutable(b)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
			continue
		}
		if err := runBrowser(ctx, exe, args); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Name, err))
			continue
		}
		return nil
	}

	if strings.HasPrefix(frontend, "http://") || strings.HasPrefix(frontend, "https://") {
		if err := openURL(frontend); err != nil {
			errs = append(errs, fmt.Errorf("default browser: %w", err))
		} else {
			return nil
		}
	}
	return fmt.Errorf("%w: %w", ErrNoBrowser, errors.Join(errs...))
}

func findExecutable(b Browser) (string, error) {
	for _, name := range b.Executables {
		if exe, err := lookPath(name); err == nil {
			return exe, nil
		}
	}
	return "", exec.ErrNotFound
}

// OpenFirst lists the connected pages and opens the first one.
func OpenFirst(ctx context.Context, client *http.Client, opts Options, projectRoot string) (Page, error) {
	pages, err := ListPages(ctx, client, ServerURL(opts))
	if err != nil {
		return Page{}, err
	}
	if len(pages) == 0 {
		return Page{}, ErrNoPages
	}
	return pages[0], Open(ctx, pages[0], projectRoot)
}
