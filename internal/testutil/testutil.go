// Package testutil provides shared test utilities and fixtures.
package testutil

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SampleSensors is the number of sensors in SampleCSV.
const SampleSensors = 3

// SampleCSV returns a small dataset with SampleSensors sensors measured at
// nine positions from 0.1 to 0.9 mm in both conditions. Sensor n tilts by
// n units across the window so every sensor scores differently. Condition
// spellings vary to exercise normalisation.
func SampleCSV() string {
	var b strings.Builder
	b.WriteString("sensor_id,position_mm,condition,measurement_mm,thickness_mm\n")
	spell := []string{"Pre", "pre", " PRE "}
	for s := 1; s <= SampleSensors; s++ {
		for i := 1; i <= 9; i++ {
			pos := float64(i) / 10
			pre := 120 + float64(s)*(pos-0.5)*10
			fmt.Fprintf(&b, "S%d,%.1f,%s,%.3f,\n", s, pos, spell[s-1], pre)
		}
		for i := 1; i <= 9; i++ {
			pos := float64(i) / 10
			post := 17.5 + float64(s)*(pos-0.5)
			fmt.Fprintf(&b, "S%d,%.1f,post,,%.3f\n", s, pos, post)
		}
	}
	return b.String()
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns its path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// MultipartUpload builds a multipart body with content as the "file" field
// plus any extra form fields. It returns the body and its content type.
func MultipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &body, w.FormDataContentType()
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
