package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/export"
	"github.com/matzehuels/shipyard/pkg/sde"
)

func testExport() *export.Export {
	e := export.New()
	add := func(id sde.TypeID, name string) {
		n := name
		e.TypeIDs[id] = export.TypeEntry{Name: &n}
		e.TypeNames[name] = id
	}
	add(100, "Rifter")
	add(200, "Tritanium")
	add(300, "Hull Plate")
	add(400, "Pyerite")
	add(500, "Rifter Blueprint")
	add(600, "Hull Plate Blueprint")
	e.Blueprints[100] = export.Blueprint{Output: 1, Inputs: []export.Input{{2, 200}, {3, 300}}, Recipe: 500}
	e.Blueprints[300] = export.Blueprint{Output: 1, Inputs: []export.Input{{1, 400}}, Recipe: 600}
	return e
}

func newTestServer(t *testing.T) (*httptest.Server, *export.Export) {
	t.Helper()
	e := testExport()
	s, err := New(e, log.NewWithOptions(io.Discard, log.Options{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts, e
}

func get(t *testing.T, ts *httptest.Server, path string, v any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("GET %s: decode: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	var body HealthResponse
	if code := get(t, ts, "/healthz", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Status != "healthy" || body.Types != 6 {
		t.Errorf("body = %+v", body)
	}
}

func TestDataFiles(t *testing.T) {
	ts, e := newTestServer(t)

	for name, v := range map[string]any{
		export.TypeIDsFile:    e.TypeIDs,
		export.TypeNamesFile:  e.TypeNames,
		export.BlueprintsFile: e.Blueprints,
	} {
		resp, err := http.Get(ts.URL + "/data/" + name)
		if err != nil {
			t.Fatal(err)
		}
		got, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		var want bytes.Buffer
		if err := export.Encode(&want, v); err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status = %d", name, resp.StatusCode)
		}
		if !bytes.Equal(got, want.Bytes()) {
			t.Errorf("%s: body differs from the written file", name)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing CORS header", name)
		}
	}
}

func TestDataFileErrors(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		path string
		code int
	}{
		{"/data/secrets.json", http.StatusNotFound},
		{"/data/.env", http.StatusBadRequest},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		var body errorResponse
		if code := get(t, ts, tt.path, &body); code != tt.code {
			t.Errorf("GET %s: status = %d, want %d", tt.path, code, tt.code)
		}
		if body.Error == "" || body.Message == "" {
			t.Errorf("GET %s: error body = %+v", tt.path, body)
		}
	}
}

func TestType(t *testing.T) {
	ts, _ := newTestServer(t)

	var body TypeResponse
	if code := get(t, ts, "/api/types/100", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Name != "Rifter" || !body.Manufactured || body.Blueprint == nil || body.Blueprint.Recipe != 500 {
		t.Errorf("body = %+v", body)
	}

	var byName TypeResponse
	if code := get(t, ts, "/api/types/Hull%20Plate", &byName); code != http.StatusOK {
		t.Fatalf("by name: status = %d, want 200", code)
	}
	if byName.ID != 300 {
		t.Errorf("by name: id = %d, want 300", byName.ID)
	}

	var raw TypeResponse
	get(t, ts, "/api/types/200", &raw)
	if raw.Blueprint != nil || raw.Manufactured {
		t.Errorf("raw material reported a blueprint: %+v", raw)
	}

	var missing errorResponse
	if code := get(t, ts, "/api/types/999", &missing); code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", code)
	}
	if missing.Error != errors.ErrCodeNotFound {
		t.Errorf("unknown id: error = %s", missing.Error)
	}
}

func TestSearch(t *testing.T) {
	ts, _ := newTestServer(t)

	var body SearchResponse
	if code := get(t, ts, "/api/search?q=ri", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	var names []string
	for _, r := range body.Results {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"Pyerite", "Rifter", "Tritanium"}, names); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	var limited SearchResponse
	get(t, ts, "/api/search?q=ri&limit=1", &limited)
	if len(limited.Results) != 1 {
		t.Errorf("limit=1 returned %d results", len(limited.Results))
	}

	for _, path := range []string{"/api/search", "/api/search?q=ri&limit=abc", "/api/search?q=ri&limit=-1"} {
		if code := get(t, ts, path, nil); code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", path, code)
		}
	}
}

func TestPlan(t *testing.T) {
	ts, _ := newTestServer(t)

	var body PlanResponse
	if code := get(t, ts, "/api/plan/Rifter?qty=2", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Plan == nil || body.Quantity != 2 {
		t.Fatalf("body = %+v", body)
	}
	if diff := cmp.Diff(map[sde.TypeID]int64{200: 4, 400: 6}, body.Raw); diff != "" {
		t.Errorf("raw mismatch (-want +got):\n%s", diff)
	}
	if body.Names[500] != "Rifter Blueprint" || body.Names[400] != "Pyerite" {
		t.Errorf("names = %v", body.Names)
	}

	tests := []struct {
		path string
		code int
	}{
		{"/api/plan/100", http.StatusOK},
		{"/api/plan/100?qty=0", http.StatusBadRequest},
		{"/api/plan/100?qty=many", http.StatusBadRequest},
		{"/api/plan/100?qty=4611686018427387904", http.StatusBadRequest},
		{"/api/plan/200", http.StatusNotFound},
		{"/api/plan/999", http.StatusNotFound},
	}
	for _, tt := range tests {
		if code := get(t, ts, tt.path, nil); code != tt.code {
			t.Errorf("GET %s: status = %d, want %d", tt.path, code, tt.code)
		}
	}
}

func TestPreflight(t *testing.T) {
	ts, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/search", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Methods") == "" {
		t.Error("missing Access-Control-Allow-Methods")
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeStoreUnavailable, "x"), http.StatusServiceUnavailable},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
