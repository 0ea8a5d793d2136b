// fxshare - command line client for the fxshare daemon
// Talks to a running fxshared instance over its local HTTP API. All
// cryptography happens daemon-side; this tool never sees key material
// beyond the share links it prints.

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

const (
	Version = "0.3.0"
	Usage   = `fxshare - encrypted share management client

USAGE:
    fxshare [global options] command [command options] [arguments...]

COMMANDS:
    login          Authenticate against the local daemon
    logout         Clear the saved session
    id             Show this account's share identity
    status         Show daemon health
    share          Share a file with a named recipient
    link           Create a public share link, or reprint one with --id
    password-link  Create a password-protected share link
    accept         Accept a share from a link
    list           List outgoing or accepted shares
    activity       Show the audit trail of a share
    revoke         Revoke an outgoing share
    delete         Delete a share record
    download       Download an accepted share
    sync           Reconcile shares with the cloud mirror
    sync-state     Show the local upload registry
    version        Show version information

GLOBAL OPTIONS:
    --daemon-url URL    Daemon URL (default: http://localhost:8787)
    --verbose, -v       Verbose output
    --help, -h          Show help

EXAMPLES:
    fxshare login
    fxshare link --bucket fula-main --path /photos/cat.jpg
    fxshare accept "fxfiles://share/FULA-..."
    fxshare download --id FULA-... --output cat.jpg
`
)

var verbose bool

// AuthSession holds the daemon session saved between invocations
type AuthSession struct {
	ShareID        string    `json:"share_id"`
	Token          string    `json:"token"`
	DaemonURL      string    `json:"daemon_url"`
	SessionCreated time.Time `json:"session_created"`
}

// HTTPClient wraps http.Client with daemon-specific request handling
type HTTPClient struct {
	client  *http.Client
	baseURL string
	verbose bool
}

func main() {
	var (
		daemonURL   = flag.String("daemon-url", "http://localhost:8787", "Daemon URL")
		verboseFlag = flag.Bool("verbose", false, "Verbose output")
		vFlag       = flag.Bool("v", false, "Verbose output (short)")
		helpFlag    = flag.Bool("help", false, "Show help information")
		hFlag       = flag.Bool("h", false, "Show help information (short)")
		versionFlag = flag.Bool("version", false, "Show version information")
	)

	flag.Parse()

	verbose = *verboseFlag || *vFlag

	if *versionFlag {
		printVersion()
		return
	}

	if *helpFlag || *hFlag || flag.NArg() == 0 {
		printUsage()
		return
	}

	client := newHTTPClient(*daemonURL, verbose)

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "login":
		err = handleLoginCommand(client, args)
	case "logout":
		err = handleLogoutCommand(args)
	case "id":
		err = handleIDCommand(client, args)
	case "status":
		err = handleStatusCommand(client, args)
	case "share":
		err = handleShareCommand(client, args)
	case "link":
		err = handleLinkCommand(client, args)
	case "password-link":
		err = handlePasswordLinkCommand(client, args)
	case "accept":
		err = handleAcceptCommand(client, args)
	case "list":
		err = handleListCommand(client, args)
	case "activity":
		err = handleActivityCommand(client, args)
	case "revoke":
		err = handleRevokeCommand(client, args)
	case "delete":
		err = handleDeleteCommand(client, args)
	case "download":
		err = handleDownloadCommand(client, args)
	case "sync":
		err = handleSyncCommand(client, args)
	case "sync-state":
		err = handleSyncStateCommand(client, args)
	case "version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logError("%s failed: %v", command, err)
		os.Exit(1)
	}
}

// newHTTPClient creates the daemon client. The daemon listens on loopback,
// so plain HTTP with a short timeout is the norm here.
func newHTTPClient(baseURL string, verbose bool) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		verbose: verbose,
	}
}

// makeRequest performs a JSON request against the daemon and returns the raw
// response body. Error responses surface the daemon's message field.
func (c *HTTPClient) makeRequest(method, endpoint string, payload interface{}, token string) ([]byte, error) {
	url := c.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.verbose {
		logVerbose("Making %s request to %s", method, url)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if c.verbose {
		logVerbose("Response status: %d", resp.StatusCode)
		logVerbose("Response body: %s", string(responseData))
	}

	if resp.StatusCode >= 400 {
		msg := errorMessage(responseData)
		// The session middleware rejects with exactly "Unauthorized"; any
		// other 401 is an application error like a wrong share password.
		if resp.StatusCode == http.StatusUnauthorized && msg == "Unauthorized" {
			return nil, fmt.Errorf("session rejected, run 'fxshare login'")
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, msg)
	}

	return responseData, nil
}

// errorMessage pulls the message out of an error body, falling back to the
// raw body when it is not the usual JSON shape
func errorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func decodeInto(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Helper functions

func printVersion() {
	fmt.Printf("fxshare version %s\n", Version)
	fmt.Printf("Encrypted share management client\n")
}

func printUsage() {
	fmt.Print(Usage)
}

func logVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("[VERBOSE] "+format+"\n", args...)
	}
}

func logError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
}

func getSessionFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fxshare-session.json"
	}
	return filepath.Join(homeDir, ".fxshare-session.json")
}

func saveAuthSession(session *AuthSession, filePath string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0600)
}

func loadAuthSession(filePath string) (*AuthSession, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var session AuthSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// requireSession loads the saved session or tells the user to login
func requireSession() (*AuthSession, error) {
	session, err := loadAuthSession(getSessionFilePath())
	if err != nil {
		return nil, fmt.Errorf("not logged in (use 'fxshare login'): %w", err)
	}
	return session, nil
}

func formatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB"}
	if exp >= len(units) {
		return fmt.Sprintf("%d B", bytes)
	}

	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}

// readPassword reads a secret from stdin. If stdin is a terminal, it prints
// the prompt and reads without echoing. If stdin is a pipe, it reads directly.
func readPassword(prompt string) ([]byte, error) {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat stdin: %w", err)
	}

	if (fi.Mode() & os.ModeCharDevice) != 0 {
		if prompt != "" {
			fmt.Print(prompt)
		}
		secret, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return nil, err
		}
		fmt.Println()
		return secret, nil
	}

	secret, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from stdin: %w", err)
	}
	return bytes.TrimRight(secret, "\r\n"), nil
}
