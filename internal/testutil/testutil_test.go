package testutil

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"testing"
)

func TestSampleCSV(t *testing.T) {
	lines := strings.Split(strings.TrimSpace(SampleCSV()), "\n")
	if got, want := len(lines), 1+SampleSensors*18; got != want {
		t.Fatalf("lines = %d, want %d", got, want)
	}
	if !strings.HasPrefix(lines[0], "sensor_id,position_mm,condition") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "S1,0.1,Pre,116.000," {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "data.csv", "a,b\n")
	b, err := os.ReadFile(path)
	AssertNoError(t, err)
	if string(b) != "a,b\n" {
		t.Errorf("content = %q", b)
	}
}

func TestMultipartUpload(t *testing.T) {
	body, ct := MultipartUpload(t, "data.csv", "x,y\n", map[string]string{"target_mean_pre": "100"})

	_, params, err := mime.ParseMediaType(ct)
	AssertNoError(t, err)
	r := multipart.NewReader(body, params["boundary"])

	seen := map[string]string{}
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		AssertNoError(t, err)
		b, _ := io.ReadAll(p)
		seen[p.FormName()] = string(b)
	}
	if seen["target_mean_pre"] != "100" || seen["file"] != "x,y\n" {
		t.Errorf("unexpected parts %v", seen)
	}
}

func TestNewTestRequest(t *testing.T) {
	req := NewTestRequest(http.MethodGet, "/healthz")
	if req.Method != http.MethodGet || req.URL.Path != "/healthz" {
		t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
	}
}
