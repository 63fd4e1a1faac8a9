//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/shaan-hospital/apiserver/config"
	"github.com/shaan-hospital/apiserver/internal/db"
	"github.com/shaan-hospital/apiserver/internal/logger"
	"github.com/shaan-hospital/apiserver/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const serverPort = 18080

var baseURL = fmt.Sprintf("http://localhost:%d/api/v1", serverPort)

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	setTestEnv()

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

	srv, err := startServer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := waitForHealth(ctx, fmt.Sprintf("http://localhost:%d/healthz", serverPort)); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestHospitalFlow(t *testing.T) {
	suffix := time.Now().UnixNano()

	adminToken := login(t, "admin@hospital.com", "Admin@123", "Admin")

	deptName := fmt.Sprintf("Cardiology %d", suffix)
	var dept struct {
		Department struct {
			ID    string `json:"_id"`
			Name  string `json:"name"`
			Image *struct {
				URL string `json:"url"`
			} `json:"image"`
		} `json:"department"`
	}
	status := doMultipart(t, http.MethodPost, "/department/create", adminToken, map[string]string{
		"name":           deptName,
		"description":    "Heart care",
		"detailedInfo":   "Diagnosis and treatment of heart disease.",
		"services":       "ECG, Angiography",
		"commonDiseases": `[{"name":"Arrhythmia","description":"Irregular heartbeat"}]`,
	}, "image", "heart.png", pngPixel, &dept)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, dept.Department.ID)
	require.NotNil(t, dept.Department.Image)

	status = doJSON(t, http.MethodGet, "/department/name/"+deptName, "", nil, nil)
	assert.Equal(t, http.StatusOK, status)

	var doctor struct {
		Doctor struct {
			ID string `json:"_id"`
		} `json:"doctor"`
	}
	status = doMultipart(t, http.MethodPost, "/user/doctor/addnew", adminToken, map[string]string{
		"firstName":        "Gregory",
		"lastName":         "House",
		"email":            fmt.Sprintf("house%d@hospital.com", suffix),
		"phone":            "03001112222",
		"aadhar":           "111122223333",
		"dob":              "1970-05-11",
		"gender":           "Male",
		"password":         "doctorpass",
		"doctorDepartment": deptName,
	}, "docAvatar", "house.png", pngPixel, &doctor)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, doctor.Doctor.ID)

	patientEmail := fmt.Sprintf("patient%d@example.com", suffix)
	status = doJSON(t, http.MethodPost, "/user/patient/register", "", map[string]any{
		"firstName": "Alice",
		"lastName":  "Smith",
		"email":     patientEmail,
		"phone":     "03009998888",
		"aadhar":    "999988887777",
		"dob":       "1995-01-02",
		"gender":    "Female",
		"password":  "patientpass",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	patientToken := login(t, patientEmail, "patientpass", "Patient")

	var booked struct {
		Appointment struct {
			ID     string `json:"_id"`
			Status string `json:"status"`
		} `json:"appointment"`
	}
	status = doJSON(t, http.MethodPost, "/appointment/post", patientToken, map[string]any{
		"firstName":        "Alice",
		"lastName":         "Smith",
		"email":            patientEmail,
		"phone":            "03009998888",
		"aadhar":           "999988887777",
		"dob":              "1995-01-02",
		"gender":           "Female",
		"appointment_date": "2030-01-15",
		"department":       deptName,
		"doctor_firstName": "Gregory",
		"doctor_lastName":  "House",
		"address":          "221B Baker Street",
	}, &booked)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Pending", booked.Appointment.Status)

	status = doJSON(t, http.MethodPut, "/appointment/update/"+booked.Appointment.ID, adminToken, map[string]any{
		"status": "Accepted",
	}, nil)
	assert.Equal(t, http.StatusOK, status)

	var created struct {
		News struct {
			ID string `json:"_id"`
		} `json:"news"`
	}
	status = doJSON(t, http.MethodPost, "/news/create", adminToken, map[string]any{
		"title":       "New cardiology wing",
		"content":     "The hospital opens a new cardiology wing this month.",
		"summary":     "Cardiology wing opening",
		"author":      "Admin",
		"priority":    "High",
		"isPublished": true,
	}, &created)
	require.Equal(t, http.StatusCreated, status)

	var liked struct {
		Likes int `json:"likes"`
	}
	status = doJSON(t, http.MethodPost, "/news/like/"+created.News.ID, "", nil, &liked)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, liked.Likes)

	status = doJSON(t, http.MethodDelete, "/news/delete/"+created.News.ID, adminToken, nil, nil)
	require.Equal(t, http.StatusOK, status)

	status = doJSON(t, http.MethodGet, "/news/article/"+created.News.ID, "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = doJSON(t, http.MethodGet, "/appointment/getall", patientToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func login(t *testing.T, email, password, role string) string {
	t.Helper()

	var parsed struct {
		Token string `json:"token"`
	}
	status := doJSON(t, http.MethodPost, "/user/login", "", map[string]any{
		"email":           email,
		"password":        password,
		"confirmPassword": password,
		"role":            role,
	}, &parsed)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, parsed.Token)
	return parsed.Token
}

func doJSON(t *testing.T, method, path, token string, payload any, out any) int {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return send(t, req, token, out)
}

func doMultipart(t *testing.T, method, path, token string, fields map[string]string, fileField, fileName string, data []byte, out any) int {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile(fileField, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(method, baseURL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return send(t, req, token, out)
}

func send(t *testing.T, req *http.Request, token string, out any) int {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func setTestEnv() {
	_ = os.Setenv("ENV", "test")
	_ = os.Setenv("JWT_SECRET_KEY", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("STORE_BACKEND", "postgres")
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "hospital")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "hospital_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_BACKEND", "minio")
	_ = os.Setenv("MINIO_ACCESS_KEY", "minioadmin")
	_ = os.Setenv("MINIO_SECRET_KEY", "minioadmin")
	_ = os.Setenv("MINIO_BUCKET", "hospital")
	_ = os.Setenv("MQ_BACKEND", "rabbitmq")
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.DSN(cfg.Database))
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
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.DSN(cfg.Database))
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

func startServer(ctx context.Context) (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(ctx, cfg, logger.New("warn"))
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
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
