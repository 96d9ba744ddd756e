package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRespondJSON_SetsStatusAndContentType(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Created", http.StatusCreated},
		{"BadRequest", http.StatusBadRequest},
		{"BadGateway", http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondJSON(recorder, tc.statusCode, map[string]string{"status": "ok"})

			assertStatusCode(t, recorder, tc.statusCode)
			assertContentType(t, recorder, "application/json")
		})
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, nil)

	// Body should be empty for nil data
	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body for nil data, got '%s'", recorder.Body.String())
	}
}

func TestRespondJSON_NullField(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondJSON(recorder, http.StatusOK, MatchResponse{Match: nil})

	if got := strings.TrimSpace(recorder.Body.String()); got != `{"match":null}` {
		t.Errorf("expected explicit null match, got %s", got)
	}
}

func TestRespondError_ContainsErrorKey(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondError(recorder, http.StatusBadRequest, "something went wrong")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "something went wrong")
}

func TestDecodeJSON(t *testing.T) {
	t.Run("empty body is accepted", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/", nil)
		dst := RecommendRequest{Text: "unchanged"}
		if err := decodeJSON(httptest.NewRecorder(), req, &dst); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dst.Text != "unchanged" {
			t.Errorf("expected dst untouched, got %q", dst.Text)
		}
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := jsonRequest(t, http.MethodPost, "/", "{not json")
		var dst RecommendRequest
		if err := decodeJSON(httptest.NewRecorder(), req, &dst); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("a\nb\rc"); got != "abc" {
		t.Errorf("expected 'abc', got %q", got)
	}
}

func TestHealthCheck(t *testing.T) {
	fixedNow(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC))

	for _, method := range []string{"GET", "POST", "HEAD"} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/ping", nil)
			recorder := httptest.NewRecorder()

			HealthCheck(recorder, req)

			assertStatusCode(t, recorder, http.StatusOK)
			assertContentType(t, recorder, "application/json")
			if method == "HEAD" {
				return
			}

			var result map[string]string
			if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if result["status"] != "ok" {
				t.Errorf("expected status 'ok', got '%s'", result["status"])
			}
			if result["time"] != "2030-01-02T03:04:05Z" {
				t.Errorf("unexpected time %q", result["time"])
			}
		})
	}
}
