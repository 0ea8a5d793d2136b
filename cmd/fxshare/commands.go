package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fxfiles/fxshare/share"
	"github.com/fxfiles/fxshare/store"
)

// shareFlags are the content flags common to the three share-creation commands
type shareFlags struct {
	bucket      *string
	path        *string
	label       *string
	permissions *string
	fileName    *string
	contentType *string
	size        *int64
	expiryDays  *int
	snapshot    *bool
	localPath   *string
}

func registerShareFlags(fs *flag.FlagSet) *shareFlags {
	return &shareFlags{
		bucket:      fs.String("bucket", "", "Bucket the file lives in (required)"),
		path:        fs.String("path", "", "Path of the file within the bucket (required)"),
		label:       fs.String("label", "", "Human-readable label for the share"),
		permissions: fs.String("permissions", "", "Permissions: read-only or read-write (default: read-only)"),
		fileName:    fs.String("file-name", "", "Display file name for recipients"),
		contentType: fs.String("content-type", "", "MIME type of the file"),
		size:        fs.Int64("size", 0, "File size in bytes, shown to recipients"),
		expiryDays:  fs.Int("expiry-days", 0, "Days until the share expires (0 = never)"),
		snapshot:    fs.Bool("snapshot", false, "Pin the share to the currently synced content"),
		localPath:   fs.String("local-path", "", "Local path whose sync state pins the snapshot"),
	}
}

func (f *shareFlags) request(shareType string) (map[string]interface{}, error) {
	if *f.bucket == "" || *f.path == "" {
		return nil, fmt.Errorf("--bucket and --path are required")
	}
	if *f.snapshot && *f.localPath == "" {
		return nil, fmt.Errorf("--local-path is required with --snapshot")
	}

	return map[string]interface{}{
		"shareType":   shareType,
		"bucket":      *f.bucket,
		"path":        *f.path,
		"label":       *f.label,
		"permissions": *f.permissions,
		"fileName":    *f.fileName,
		"contentType": *f.contentType,
		"size":        *f.size,
		"expiryDays":  *f.expiryDays,
		"snapshot":    *f.snapshot,
		"localPath":   *f.localPath,
	}, nil
}

// shareResponse mirrors the daemon's share-creation response
type shareResponse struct {
	Share *share.OutgoingShare `json:"share"`
	Link  string               `json:"link"`
}

func printCreatedShare(resp *shareResponse) {
	fmt.Printf("✅ Share created: %s\n", resp.Share.Token.ID)
	if resp.Share.Token.Mode == share.ModeSnapshot {
		fmt.Printf("Mode: snapshot (pinned to current content)\n")
	}
	if resp.Share.Token.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", resp.Share.Token.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	if resp.Link != "" {
		fmt.Printf("Link: %s\n", resp.Link)
	}
}

// idArgument resolves a share ID from --id or the first positional argument
func idArgument(fs *flag.FlagSet, idFlag *string) (string, error) {
	id := *idFlag
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("share ID is required (--id or positional)")
	}
	return id, nil
}

// handleLoginCommand authenticates against the daemon with the account secret
func handleLoginCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Printf(`Usage: fxshare login

Authenticate against the local fxshare daemon. The account secret is read
from the terminal, or from stdin when piped.

EXAMPLES:
    fxshare login
    echo -n "$ACCOUNT_SECRET" | fxshare login
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	secret, err := readPassword("Enter account secret: ")
	if err != nil {
		return fmt.Errorf("failed to read account secret: %w", err)
	}

	loginReq := map[string]string{"accountSecret": string(secret)}
	for i := range secret {
		secret[i] = 0
	}

	data, err := client.makeRequest("POST", "/api/session", loginReq, "")
	if err != nil {
		return err
	}

	var resp struct {
		Token   string `json:"token"`
		ShareID string `json:"shareId"`
	}
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	session := &AuthSession{
		ShareID:        resp.ShareID,
		Token:          resp.Token,
		DaemonURL:      client.baseURL,
		SessionCreated: time.Now(),
	}
	if err := saveAuthSession(session, getSessionFilePath()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Printf("✅ Logged in as %s\n", resp.ShareID)
	return nil
}

// handleLogoutCommand clears the saved session
func handleLogoutCommand(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.Remove(getSessionFilePath()); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
	}

	fmt.Printf("✅ Logged out\n")
	return nil
}

// handleIDCommand prints the share identity the daemon creates shares as
func handleIDCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("id", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	data, err := client.makeRequest("GET", "/api/whoami", nil, session.Token)
	if err != nil {
		return err
	}

	var resp struct {
		ShareID string `json:"shareId"`
	}
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	fmt.Println(resp.ShareID)
	return nil
}

// handleStatusCommand prints daemon health. Health endpoints answer 503 when
// unhealthy, so this bypasses the usual error handling to still show output.
func handleStatusCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Output raw health JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := http.NewRequest("GET", client.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpResp, err := client.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	responseData, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if *asJSON {
		fmt.Println(string(responseData))
		return nil
	}

	var health struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Uptime  int64  `json:"uptime"`
		Checks  map[string]struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(responseData, &health); err != nil {
		return fmt.Errorf("failed to parse health response: %w", err)
	}

	fmt.Printf("Daemon: %s (%s), uptime %s\n", health.Status, health.Version,
		time.Duration(health.Uptime).Round(time.Second))
	for name, check := range health.Checks {
		fmt.Printf("  %-10s %-10s %s\n", name, check.Status, check.Message)
	}
	return nil
}

// handleShareCommand creates a recipient share sealed to a public key
func handleShareCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	content := registerShareFlags(fs)
	var (
		recipientKey  = fs.String("recipient-key", "", "Recipient's share ID or base64 public key (required)")
		recipientName = fs.String("recipient-name", "", "Display name for the recipient")
	)

	fs.Usage = func() {
		fmt.Printf(`Usage: fxshare share [FLAGS]

Share a file with a named recipient. The file key is sealed to the
recipient's public key; only they can open the share.

FLAGS:
    --bucket BUCKET         Bucket the file lives in (required)
    --path PATH             Path within the bucket (required)
    --recipient-key KEY     Recipient's share ID (required)
    --recipient-name NAME   Display name for the recipient
    --expiry-days DAYS      Days until expiry (0 = never)
    --label TEXT            Label for the share
    --snapshot              Pin to the currently synced content
    --local-path PATH       Local path whose sync state pins the snapshot

EXAMPLES:
    fxshare share --bucket fula-main --path /docs/report.pdf --recipient-key FULA-8MH...
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *recipientKey == "" {
		return fmt.Errorf("--recipient-key is required")
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	payload, err := content.request("recipient")
	if err != nil {
		return err
	}
	payload["recipientKey"] = *recipientKey
	payload["recipientName"] = *recipientName

	data, err := client.makeRequest("POST", "/api/shares", payload, session.Token)
	if err != nil {
		return err
	}

	var resp shareResponse
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	printCreatedShare(&resp)
	if resp.Share.RecipientName != "" {
		fmt.Printf("Recipient: %s\n", resp.Share.RecipientName)
	}
	return nil
}

// handleLinkCommand creates a public share link, or rebuilds the link of an
// existing share when --id is given
func handleLinkCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("link", flag.ExitOnError)
	content := registerShareFlags(fs)
	idFlag := fs.String("id", "", "Rebuild the link of an existing share instead of creating one")

	fs.Usage = func() {
		fmt.Printf(`Usage: fxshare link [FLAGS]

Create a public share link. The link carries the key in its fragment;
anyone holding the complete link can open the share. With --id the link
of an existing share is printed again instead.

FLAGS:
    --bucket BUCKET     Bucket the file lives in (required)
    --path PATH         Path within the bucket (required)
    --expiry-days DAYS  Days until expiry (0 = never)
    --label TEXT        Label for the share
    --snapshot          Pin to the currently synced content
    --local-path PATH   Local path whose sync state pins the snapshot
    --id SHARE_ID       Print the link of this existing share

EXAMPLES:
    fxshare link --bucket fula-main --path /photos/cat.jpg --expiry-days 7
    fxshare link --id 3f2a9c10-8a7e-4c2b-9f31-70bd2f8c4e55
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	if *idFlag != "" {
		data, err := client.makeRequest("GET", "/api/shares/"+*idFlag+"/link", nil, session.Token)
		if err != nil {
			return err
		}

		var resp struct {
			Link string `json:"link"`
		}
		if err := decodeInto(data, &resp); err != nil {
			return err
		}
		fmt.Printf("Link: %s\n", resp.Link)
		return nil
	}

	payload, err := content.request("publicLink")
	if err != nil {
		return err
	}

	data, err := client.makeRequest("POST", "/api/shares", payload, session.Token)
	if err != nil {
		return err
	}

	var resp shareResponse
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	printCreatedShare(&resp)
	return nil
}

// handlePasswordLinkCommand creates a password-protected share link
func handlePasswordLinkCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("password-link", flag.ExitOnError)
	content := registerShareFlags(fs)

	fs.Usage = func() {
		fmt.Printf(`Usage: fxshare password-link [FLAGS]

Create a password-protected share link. The password is read from the
terminal and wraps the file key; the link alone is not enough to open
the share.

FLAGS:
    --bucket BUCKET     Bucket the file lives in (required)
    --path PATH         Path within the bucket (required)
    --expiry-days DAYS  Days until expiry (0 = never)
    --label TEXT        Label for the share

EXAMPLES:
    fxshare password-link --bucket fula-main --path /docs/contract.pdf
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	payload, err := content.request("passwordProtected")
	if err != nil {
		return err
	}

	password, err := readPassword("Enter share password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	payload["password"] = string(password)
	for i := range password {
		password[i] = 0
	}

	data, err := client.makeRequest("POST", "/api/shares", payload, session.Token)
	if err != nil {
		return err
	}

	var resp shareResponse
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	printCreatedShare(&resp)
	return nil
}

// handleAcceptCommand takes in a share from a link
func handleAcceptCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("accept", flag.ExitOnError)
	linkFlag := fs.String("link", "", "Share link to accept")

	fs.Usage = func() {
		fmt.Printf(`Usage: fxshare accept [--link] LINK

Accept a share from a link. The share is remembered locally and can be
downloaded with 'fxshare download'.

EXAMPLES:
    fxshare accept "fxfiles://share/FULA-...?token=...#key=..."
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	link := *linkFlag
	if link == "" && fs.NArg() > 0 {
		link = fs.Arg(0)
	}
	if link == "" {
		return fmt.Errorf("share link is required")
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	data, err := client.makeRequest("POST", "/api/accepted", map[string]string{"link": link}, session.Token)
	if err != nil {
		return err
	}

	var resp struct {
		Accepted *share.AcceptedShare `json:"accepted"`
	}
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	token := resp.Accepted.Token
	fmt.Printf("✅ Share accepted: %s\n", token.ID)
	if token.FileName != "" {
		fmt.Printf("File: %s (%s)\n", token.FileName, formatFileSize(token.Size))
	}
	fmt.Printf("From: %s\n", token.SenderID)
	if token.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", token.ExpiresAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// handleListCommand lists outgoing shares, or accepted ones with --accepted
func handleListCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		accepted = fs.Bool("accepted", false, "List accepted shares instead of outgoing ones")
		all      = fs.Bool("all", false, "Include revoked and expired shares")
		asJSON   = fs.Bool("json", false, "Output raw JSON")
	)

	fs.Usage = func() {
		fmt.Printf(`Usage: fxshare list [FLAGS]

List shares known to this device.

FLAGS:
    --accepted      List accepted shares instead of outgoing ones
    --all           Include revoked and expired shares
    --json          Output raw JSON

EXAMPLES:
    fxshare list
    fxshare list --all
    fxshare list --accepted
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	endpoint := "/api/shares"
	if *accepted {
		endpoint = "/api/accepted"
	}
	if *all {
		endpoint += "?all=1"
	}

	data, err := client.makeRequest("GET", endpoint, nil, session.Token)
	if err != nil {
		return err
	}

	if *asJSON {
		fmt.Println(string(data))
		return nil
	}

	if *accepted {
		var resp struct {
			Accepted []*share.AcceptedShare `json:"accepted"`
		}
		if err := decodeInto(data, &resp); err != nil {
			return err
		}
		printAcceptedTable(resp.Accepted)
		return nil
	}

	var resp struct {
		Shares []*share.OutgoingShare `json:"shares"`
	}
	if err := decodeInto(data, &resp); err != nil {
		return err
	}
	printOutgoingTable(resp.Shares)
	return nil
}

func printOutgoingTable(shares []*share.OutgoingShare) {
	if len(shares) == 0 {
		fmt.Println("No shares found")
		return
	}

	fmt.Printf("Found %d share(s):\n\n", len(shares))
	fmt.Println("Share ID                               Type               Mode      Status   Path")
	fmt.Println("-------------------------------------  -----------------  --------  -------  ----------------------------")
	for _, s := range shares {
		status := "active"
		if s.Revoked {
			status = "revoked"
		} else if s.Token.IsExpired(time.Now().UTC()) {
			status = "expired"
		}
		fmt.Printf("%-37s  %-17s  %-8s  %-7s  %s\n",
			s.Token.ID, s.Token.Type, s.Token.Mode, status, s.Token.Path)
	}
}

func printAcceptedTable(accepted []*share.AcceptedShare) {
	if len(accepted) == 0 {
		fmt.Println("No accepted shares found")
		return
	}

	fmt.Printf("Found %d accepted share(s):\n\n", len(accepted))
	fmt.Println("Share ID                               File                        Sender                      Accepted")
	fmt.Println("-------------------------------------  --------------------------  --------------------------  -------------------")
	for _, a := range accepted {
		name := a.Token.FileName
		if name == "" {
			name = a.Token.Path
		}
		fmt.Printf("%-37s  %-26s  %-26s  %s\n",
			a.Token.ID, name, a.Token.SenderID, a.AcceptedAt.Local().Format("2006-01-02 15:04"))
	}
}

// handleActivityCommand prints the audit trail of a share
func handleActivityCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("activity", flag.ExitOnError)
	idFlag := fs.String("id", "", "Share ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := idArgument(fs, idFlag)
	if err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	data, err := client.makeRequest("GET", "/api/shares/"+id+"/activity", nil, session.Token)
	if err != nil {
		return err
	}

	var resp struct {
		Events []*store.ShareEvent `json:"events"`
	}
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	if len(resp.Events) == 0 {
		fmt.Println("No activity recorded")
		return nil
	}

	fmt.Println("Time                 Action      Detail")
	fmt.Println("-------------------  ----------  ----------------------------")
	for _, ev := range resp.Events {
		fmt.Printf("%-19s  %-10s  %s\n",
			ev.CreatedAt.Local().Format("2006-01-02 15:04:05"), ev.Action, ev.Detail)
	}
	return nil
}

// handleRevokeCommand permanently disables an outgoing share
func handleRevokeCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	idFlag := fs.String("id", "", "Share ID to revoke")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := idArgument(fs, idFlag)
	if err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	if _, err := client.makeRequest("POST", "/api/shares/"+id+"/revoke", nil, session.Token); err != nil {
		return err
	}

	fmt.Printf("✅ Share %s revoked\n", id)
	return nil
}

// handleDeleteCommand removes a share record
func handleDeleteCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	var (
		idFlag   = fs.String("id", "", "Share ID to delete")
		accepted = fs.Bool("accepted", false, "Delete an accepted share instead of an outgoing one")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := idArgument(fs, idFlag)
	if err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	endpoint := "/api/shares/" + id
	if *accepted {
		endpoint = "/api/accepted/" + id
	}

	if _, err := client.makeRequest("DELETE", endpoint, nil, session.Token); err != nil {
		return err
	}

	fmt.Printf("✅ Share %s deleted\n", id)
	return nil
}

// handleDownloadCommand fetches and decrypts an accepted share to disk
func handleDownloadCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	var (
		idFlag     = fs.String("id", "", "Accepted share ID (required)")
		output     = fs.String("output", "", "Output file path (default: shared file name)")
		promptFlag = fs.Bool("prompt", false, "Prompt for the share password")
	)

	fs.Usage = func() {
		fmt.Printf(`Usage: fxshare download [FLAGS] [SHARE-ID]

Download the content behind an accepted share. The daemon fetches the
ciphertext and decrypts it; password-protected shares need --prompt.

FLAGS:
    --id ID        Accepted share ID (or positional)
    --output FILE  Output file path (default: shared file name)
    --prompt       Prompt for the share password

EXAMPLES:
    fxshare download FULA-8MH...
    fxshare download --id FULA-8MH... --output report.pdf --prompt
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := idArgument(fs, idFlag)
	if err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	payload := map[string]string{}
	if *promptFlag {
		password, err := readPassword("Enter share password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		payload["password"] = string(password)
		for i := range password {
			password[i] = 0
		}
	}

	// The download endpoint streams the decrypted blob, so this skips the
	// JSON response plumbing.
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest("POST", client.baseURL+"/api/accepted/"+id+"/download", strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+session.Token)

	httpResp, err := client.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	responseData, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := errorMessage(responseData)
		if httpResp.StatusCode == http.StatusUnauthorized && msg == "Invalid password" && !*promptFlag {
			return fmt.Errorf("share requires a password (retry with --prompt)")
		}
		return fmt.Errorf("HTTP %d: %s", httpResp.StatusCode, msg)
	}

	outPath := *output
	if outPath == "" {
		outPath = filenameFromDisposition(httpResp.Header.Get("Content-Disposition"))
	}
	if outPath == "" {
		outPath = id + ".bin"
	}

	if err := os.WriteFile(outPath, responseData, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("✅ Downloaded %s to %s\n", formatFileSize(int64(len(responseData))), outPath)
	return nil
}

// filenameFromDisposition pulls the filename out of a Content-Disposition
// header, or returns empty when there is none
func filenameFromDisposition(header string) string {
	_, name, found := strings.Cut(header, `filename="`)
	if !found {
		return ""
	}
	name, _, found = strings.Cut(name, `"`)
	if !found {
		return ""
	}
	// Keep only the base name so a hostile header cannot escape the cwd
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ""
	}
	return name
}

// handleSyncCommand reconciles local shares with the cloud mirror
func handleSyncCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	data, err := client.makeRequest("POST", "/api/sync", nil, session.Token)
	if err != nil {
		return err
	}

	var resp struct {
		Shares []*share.OutgoingShare `json:"shares"`
		Count  int                    `json:"count"`
	}
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	fmt.Printf("✅ Sync complete: %d share(s) in the merged set\n", resp.Count)
	return nil
}

// handleSyncStateCommand prints the local upload registry
func handleSyncStateCommand(client *HTTPClient, args []string) error {
	fs := flag.NewFlagSet("sync-state", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Output raw JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := requireSession()
	if err != nil {
		return err
	}

	data, err := client.makeRequest("GET", "/api/sync-state", nil, session.Token)
	if err != nil {
		return err
	}

	if *asJSON {
		fmt.Println(string(data))
		return nil
	}

	var resp struct {
		States []*store.SyncState `json:"states"`
	}
	if err := decodeInto(data, &resp); err != nil {
		return err
	}

	if len(resp.States) == 0 {
		fmt.Println("No sync records found")
		return nil
	}

	fmt.Println("Status     Size       Synced               Local Path")
	fmt.Println("---------  ---------  -------------------  ----------------------------")
	for _, st := range resp.States {
		synced := "-"
		if st.LastSyncedAt != nil {
			synced = st.LastSyncedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-9s  %-9s  %-19s  %s\n",
			st.Status, formatFileSize(st.LocalSize), synced, st.LocalPath)
	}
	return nil
}
