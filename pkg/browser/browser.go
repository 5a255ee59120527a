// Package browser opens the OAuth consent page in the user's browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// start launches the command without waiting for it; replaced in tests.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start() // #nosec G204 -- URL validated by Open
}

// Open opens the specified URL in the default browser.
func Open(urlString string) error {
	name, args, err := command(runtime.GOOS, urlString)
	if err != nil {
		return err
	}
	return start(name, args...)
}

// command validates the URL and returns the launcher for goos. Only http
// and https URLs are accepted so nothing else reaches the shell (CWE-78).
func command(goos, urlString string) (string, []string, error) {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return "", nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", nil, fmt.Errorf("unsupported URL scheme: %s (only http and https allowed)", parsedURL.Scheme)
	}

	switch goos {
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{urlString}, nil
	case "darwin":
		return "open", []string{urlString}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", urlString}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
