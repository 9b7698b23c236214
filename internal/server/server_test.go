package server

import (
	"bytes"
	"encoding/json"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/kiesman99/maskmap/internal/api"
	"github.com/kiesman99/maskmap/pkg/raster"
)

// Test server setup
func setupTestServer() (*httptest.Server, afero.Fs) {
	fs := afero.NewMemMapFs()
	apiServer := NewServer("2.0.0-test", "/work", fs)
	return httptest.NewServer(NewRouter(apiServer, 30*time.Second)), fs
}

func pngBytes(t *testing.T, m *raster.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := raster.Encode(&buf, m); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

type upload struct {
	field, filename string
	data            []byte
}

func multipartBody(t *testing.T, uploads ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, u := range uploads {
		w, err := mw.CreateFormFile(u.field, u.filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		w.Write(u.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func postBake(t *testing.T, url string, uploads ...upload) *http.Response {
	t.Helper()
	body, contentType := multipartBody(t, uploads...)
	resp, err := http.Post(url, contentType, body)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, resp *http.Response) api.ErrorResponse {
	t.Helper()
	var errResp api.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return errResp
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", contentType)
	}

	var healthResp api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if healthResp.Status != api.Healthy {
		t.Errorf("Expected status 'healthy', got %s", healthResp.Status)
	}

	if healthResp.Version == nil || *healthResp.Version != "2.0.0-test" {
		t.Errorf("Expected version '2.0.0-test', got %v", healthResp.Version)
	}

	if healthResp.Uptime == nil || *healthResp.Uptime < 0 {
		t.Errorf("Expected valid uptime, got %v", healthResp.Uptime)
	}

	if time.Since(healthResp.Timestamp) > time.Minute {
		t.Errorf("Timestamp seems too old: %v", healthResp.Timestamp)
	}
}

func TestLegacyHealthRedirect(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently {
		t.Errorf("Expected status 301, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/api/v1/health" {
		t.Errorf("Expected redirect to /api/v1/health, got %s", loc)
	}
}

func TestBakeEndpoint_Success(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	albedo := pngBytes(t, raster.NewUniform(32, 32, raster.RGB, 100))
	specular := pngBytes(t, raster.NewUniform(8, 8, raster.Gray, 40))

	resp := postBake(t, server.URL+"/api/v1/bakes?generate_normal=true",
		upload{"albedo", "stone.png", albedo},
		upload{"specular", "spec.png", specular},
	)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header")
	}

	var bakeResp api.BakeResponse
	if err := json.NewDecoder(resp.Body).Decode(&bakeResp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if bakeResp.Width != 32 || bakeResp.Height != 32 {
		t.Errorf("Expected 32x32, got %dx%d", bakeResp.Width, bakeResp.Height)
	}

	wantFiles := []string{
		"stone_albedo.png", "stone_emissive.png", "stone_roughness.png",
		"stone_metallic.png", "stone_specular.png", "stone_normal.png", "stone_mask.png",
	}
	if len(bakeResp.Files) != len(wantFiles) {
		t.Fatalf("Expected %d files, got %v", len(wantFiles), bakeResp.Files)
	}
	for i, f := range wantFiles {
		if bakeResp.Files[i] != f {
			t.Errorf("File %d: expected %s, got %s", i, f, bakeResp.Files[i])
		}
	}

	if len(bakeResp.Copied) != 1 || bakeResp.Copied[0] != "specular" {
		t.Errorf("Expected only specular to be copied, got %v", bakeResp.Copied)
	}

	if n := len(bakeResp.Progress); n == 0 || bakeResp.Progress[n-1].Fraction != 1 {
		t.Errorf("Expected progress to end at 1, got %v", bakeResp.Progress)
	}

	// Fetch the mask and check the specular override landed in alpha
	maskResp, err := http.Get(server.URL + "/api/v1/bakes/" + bakeResp.Id + "/stone_mask.png")
	if err != nil {
		t.Fatalf("Failed to fetch mask: %v", err)
	}
	defer maskResp.Body.Close()

	if maskResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", maskResp.StatusCode)
	}
	if ct := maskResp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected Content-Type image/png, got %s", ct)
	}

	mask, err := raster.Decode(maskResp.Body, "stone_mask.png")
	if err != nil {
		t.Fatalf("Failed to decode mask: %v", err)
	}
	if mask.Size() != image.Pt(32, 32) || mask.Channels != raster.RGBA {
		t.Fatalf("Unexpected mask shape %v x%d", mask.Size(), mask.Channels)
	}
	if got := mask.At(5, 7, 3); got != 40 {
		t.Errorf("Expected mask alpha 40, got %d", got)
	}
	if got := mask.At(5, 7, 0); got != 0 {
		t.Errorf("Expected mask red 0, got %d", got)
	}
}

func TestBakeEndpoint_MissingAlbedo(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	resp := postBake(t, server.URL+"/api/v1/bakes",
		upload{"roughness", "r.png", pngBytes(t, raster.NewUniform(2, 2, raster.Gray, 1))},
	)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Field == nil || *errResp.Field != "albedo" {
		t.Errorf("Expected field 'albedo', got %v", errResp.Field)
	}
}

func TestBakeEndpoint_InvalidQuery(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	resp := postBake(t, server.URL+"/api/v1/bakes?generate_normal=maybe",
		upload{"albedo", "a.png", pngBytes(t, raster.NewUniform(4, 4, raster.RGB, 1))},
	)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Field == nil || *errResp.Field != "generate_normal" {
		t.Errorf("Expected field 'generate_normal', got %v", errResp.Field)
	}
}

func TestBakeEndpoint_NotMultipart(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/bakes", "application/json", bytes.NewBufferString("{}"))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestBakeEndpoint_UndecodableAlbedo(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	resp := postBake(t, server.URL+"/api/v1/bakes",
		upload{"albedo", "a.png", []byte("definitely not a png")},
	)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Error != api.INVALIDINPUT {
		t.Errorf("Expected %s, got %s", api.INVALIDINPUT, errResp.Error)
	}
}

func TestBakeEndpoint_OversizedTGAHeader(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	// 18-byte header declaring 65535x65535 at 32 bpp and no pixel data
	header := []byte{0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xFF, 0xFF, 0xFF, 0xFF, 32, 0}
	resp := postBake(t, server.URL+"/api/v1/bakes",
		upload{"albedo", "huge.tga", header},
	)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Error != api.INVALIDINPUT {
		t.Errorf("Expected %s, got %s", api.INVALIDINPUT, errResp.Error)
	}
}

func TestBakeEndpoint_UndecodableOverride(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	resp := postBake(t, server.URL+"/api/v1/bakes",
		upload{"albedo", "a.png", pngBytes(t, raster.NewUniform(4, 4, raster.RGB, 1))},
		upload{"metallic", "m.png", []byte("broken")},
	)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", resp.StatusCode)
	}
	errResp := decodeError(t, resp)
	if errResp.Error != api.DECODEERROR {
		t.Errorf("Expected %s, got %s", api.DECODEERROR, errResp.Error)
	}
	if errResp.Stage == nil || *errResp.Stage != "metallic" {
		t.Errorf("Expected stage 'metallic', got %v", errResp.Stage)
	}
}

func TestGetBakeFile_NotFound(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	paths := []string{
		"/api/v1/bakes/not-a-uuid/x_mask.png",
		"/api/v1/bakes/6f1c1d3e-8a4b-4d6e-9c1a-2b3c4d5e6f70/x_mask.png",
		"/api/v1/bakes/6f1c1d3e-8a4b-4d6e-9c1a-2b3c4d5e6f70/notes.txt",
	}
	for _, p := range paths {
		resp, err := http.Get(server.URL + p)
		if err != nil {
			t.Fatalf("Failed to make request: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected status 404, got %d", p, resp.StatusCode)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	server, _ := setupTestServer()
	defer server.Close()

	req, _ := http.NewRequest(http.MethodOptions, server.URL+"/api/v1/bakes", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}
