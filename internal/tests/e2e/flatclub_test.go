//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/config"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/db"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	serverPort = 18080
)

var serverCancel context.CancelFunc

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := startServer(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/api/health-check"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		serverCancel()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	serverCancel()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestMarketplaceLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()

	ownerToken := registerAndLogin(t, baseURL, fmt.Sprintf("owner_%d", suffix))
	flatmateToken := registerAndLogin(t, baseURL, fmt.Sprintf("mate_%d", suffix))

	listing := createListing(t, baseURL, ownerToken)
	if listing.ID == 0 {
		t.Fatalf("expected listing ID to be set")
	}
	if len(listing.Images) != 1 || !strings.HasPrefix(listing.Images[0], "uploads/") {
		t.Fatalf("unexpected image paths: %v", listing.Images)
	}

	fetchImage(t, baseURL, listing.Images[0])

	results := searchListings(t, baseURL, "location=Warsaw&min_price=500")
	found := false
	for _, r := range results {
		if r.ID == listing.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created listing missing from search results")
	}

	group := createGroup(t, baseURL, ownerToken, listing.ID)

	mateID := currentUserID(t, baseURL, flatmateToken)
	doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/groups/%d/join-request", baseURL, group.ID), flatmateToken, nil, http.StatusOK)
	doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/groups/%d/approve-member", baseURL, group.ID), ownerToken,
		map[string]int{"user_id": mateID}, http.StatusOK)

	updated := getGroup(t, baseURL, group.ID)
	activeMembers := 0
	for _, m := range updated.Members {
		if m.Status == "active" {
			activeMembers++
		}
	}
	if activeMembers != 2 {
		t.Fatalf("expected 2 active members, got %d", activeMembers)
	}

	ownerID := currentUserID(t, baseURL, ownerToken)
	doJSON(t, http.MethodPost, baseURL+"/api/messages", flatmateToken,
		map[string]any{"recipient_id": ownerID, "content": "When can I visit the flat?"}, http.StatusCreated)

	messages := listMessages(t, baseURL, ownerToken)
	if len(messages) == 0 {
		t.Fatalf("expected owner inbox to contain the message")
	}

	doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/groups/%d/leave", baseURL, group.ID), flatmateToken, nil, http.StatusOK)
	doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/listings/%d", baseURL, listing.ID), ownerToken, nil, http.StatusOK)

	resp, err := http.Get(fmt.Sprintf("%s/api/listings/%d", baseURL, listing.ID))
	if err != nil {
		t.Fatalf("get deleted listing: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

type listingResponse struct {
	ID     int      `json:"listing_id"`
	Title  string   `json:"title"`
	Images []string `json:"images"`
}

type groupResponse struct {
	ID      int `json:"group_id"`
	Members []struct {
		UserID int    `json:"user_id"`
		Status string `json:"status"`
	} `json:"members"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func registerAndLogin(t *testing.T, baseURL, username string) string {
	t.Helper()

	email := username + "@example.com"
	doJSON(t, http.MethodPost, baseURL+"/api/register", "", map[string]string{
		"name":     "Test",
		"surname":  "User",
		"username": username,
		"email":    email,
		"password": "testpass123!",
	}, http.StatusCreated)

	body := doJSON(t, http.MethodPost, baseURL+"/api/login", "", map[string]string{
		"email":    email,
		"password": "testpass123!",
	}, http.StatusOK)

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		t.Fatalf("decode token: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatalf("missing access token in login response")
	}
	return token.AccessToken
}

func currentUserID(t *testing.T, baseURL, token string) int {
	t.Helper()

	// the token subject is the user ID; resolve it through the directory
	payload := strings.Split(token, ".")[1]
	data, err := decodeJWTPart(payload)
	if err != nil {
		t.Fatalf("decode token payload: %v", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(data, &claims); err != nil {
		t.Fatalf("parse claims: %v", err)
	}

	var id int
	if _, err := fmt.Sscanf(claims.Sub, "%d", &id); err != nil {
		t.Fatalf("parse subject %q: %v", claims.Sub, err)
	}
	return id
}

func decodeJWTPart(part string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(part)
}

func createListing(t *testing.T, baseURL, token string) listingResponse {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("title", "Bright room near the old town")
	_ = writer.WriteField("description", "Quiet street, fast internet, friendly neighbours.")
	_ = writer.WriteField("price", "950")
	_ = writer.WriteField("location", "Warsaw")
	_ = writer.WriteField("isRental", "true")
	_ = writer.WriteField("preferences", `{"smoking":false,"pet_friendly":true}`)

	part, err := writer.CreateFormFile("images", "room.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(tinyPNG()); err != nil {
		t.Fatalf("write image: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/listings", &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("create listing status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	return parsed
}

func searchListings(t *testing.T, baseURL, query string) []listingResponse {
	t.Helper()

	resp, err := http.Get(baseURL + "/api/listings/search?" + query)
	if err != nil {
		t.Fatalf("search listings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search status %d", resp.StatusCode)
	}

	var parsed []listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode search results: %v", err)
	}
	return parsed
}

func createGroup(t *testing.T, baseURL, token string, listingID int) groupResponse {
	t.Helper()

	body := doJSON(t, http.MethodPost, baseURL+"/api/groups", token, map[string]any{
		"name":        "Old town flatmates",
		"description": "Two rooms still free.",
		"listing_id":  listingID,
	}, http.StatusCreated)

	var parsed groupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("decode group: %v", err)
	}
	if parsed.ID == 0 {
		t.Fatalf("expected group ID to be set")
	}
	return parsed
}

func getGroup(t *testing.T, baseURL string, id int) groupResponse {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/groups/%d", baseURL, id))
	if err != nil {
		t.Fatalf("get group: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get group status %d", resp.StatusCode)
	}

	var parsed groupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode group: %v", err)
	}
	return parsed
}

func listMessages(t *testing.T, baseURL, token string) []json.RawMessage {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/messages", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list messages status %d", resp.StatusCode)
	}

	var parsed []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	return parsed
}

func fetchImage(t *testing.T, baseURL, imagePath string) {
	t.Helper()

	resp, err := http.Get(baseURL + "/" + imagePath)
	if err != nil {
		t.Fatalf("fetch image: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fetch image status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("unexpected image content type %q", ct)
	}
}

func doJSON(t *testing.T, method, url, token string, payload any, wantStatus int) []byte {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s status %d (want %d): %s", method, url, resp.StatusCode, wantStatus, strings.TrimSpace(string(data)))
	}
	return data
}

// tinyPNG returns a valid 1x1 transparent PNG.
func tinyPNG() []byte {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89, 0x00, 0x00, 0x00,
		0x0D, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9C, 0x62, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00, 0x00, 0x00, 0x00, 0x49,
		0x45, 0x4E, 0x44, 0xAE, 0x42, 0x60, 0x82,
	}
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.BuildDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, db.BuildDSN(cfg.Database))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() error {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "flatclub")
	_ = os.Setenv("DB_PASSWORD", "flatclub")
	_ = os.Setenv("DB_NAME", "flatclub")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", "minio")
	_ = os.Setenv("MINIO_ENDPOINT", "localhost:9000")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "flatclub")
	_ = os.Setenv("REDIS_ADDR", "localhost:6379")
	_ = os.Setenv("BROKER_BACKEND", "none")

	cfg := config.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	serverCancel = cancel

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		cancel()
		return err
	}

	go func() {
		_ = srv.Start(ctx)
	}()

	return nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
