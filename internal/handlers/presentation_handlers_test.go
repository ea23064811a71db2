package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"presentation-coach/internal/llm"
	"presentation-coach/internal/models"
	"presentation-coach/internal/services"

	"github.com/charmbracelet/log"
)

type stubAnalyzer struct {
	entries []models.AnalysisEntry
	err     error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, slides []models.Slide) ([]models.AnalysisEntry, error) {
	return s.entries, s.err
}

func newTestServer(t *testing.T, analyzer llm.Analyzer) *httptest.Server {
	t.Helper()

	logger := log.New(io.Discard)
	store, err := services.NewPresentationStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	registry := services.NewSessionRegistry(services.NewMemorySessionStore())
	hub := services.NewWebSocketService(registry, nil, logger)
	go hub.Run()

	router := SetupRoutes(
		NewPresentationHandler(store, analyzer, nil, logger),
		NewWebSocketHandler(hub, logger),
		NewStaticHandler(t.TempDir()),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func createPresentation(t *testing.T, baseURL string) models.Presentation {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/presentations",
		`{"title":"My deck","slides":[{"title":"Intro","content":"Hello"},{"title":"End","content":"Bye"}]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var pres models.Presentation
	decodeBody(t, resp, &pres)
	return pres
}

func TestCreatePresentation(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{})

		pres := createPresentation(t, server.URL)
		if pres.ID != 1 || pres.Title != "My deck" || len(pres.Slides) != 2 {
			t.Errorf("unexpected presentation: %+v", pres)
		}
		if pres.Analyzed || pres.Analysis == nil {
			t.Error("new presentation should be unanalyzed with empty analysis")
		}
	})

	t.Run("MissingTitle", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{})

		resp := postJSON(t, server.URL+"/api/presentations", `{"slides":[]}`)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("SlidesNotAnArray", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{})

		resp := postJSON(t, server.URL+"/api/presentations", `{"title":"x","slides":"nope"}`)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestGetAndListPresentations(t *testing.T) {
	server := newTestServer(t, &stubAnalyzer{})
	created := createPresentation(t, server.URL)

	t.Run("Get", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/presentations/1")
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var pres models.Presentation
		decodeBody(t, resp, &pres)
		if pres.ID != created.ID {
			t.Errorf("expected id %d, got %d", created.ID, pres.ID)
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/presentations/99")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("GetNonNumericID", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/presentations/abc")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("List", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/presentations")
		if err != nil {
			t.Fatal(err)
		}
		var list []models.Presentation
		decodeBody(t, resp, &list)
		if len(list) != 1 {
			t.Errorf("expected 1 presentation, got %d", len(list))
		}
	})
}

func TestAnalyzePresentation(t *testing.T) {
	entries := []models.AnalysisEntry{
		{SlideIndex: 0, Importance: "high", ExpectedTimeSeconds: 45, SpeakerNotes: "n"},
		{SlideIndex: 1, Importance: "low", ExpectedTimeSeconds: 30},
	}

	t.Run("Success", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{entries: entries})
		createPresentation(t, server.URL)

		resp := postJSON(t, server.URL+"/api/presentations/1/analyze", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var result AnalyzeResponse
		decodeBody(t, resp, &result)
		if !result.Presentation.Analyzed || len(result.Presentation.Analysis) != 2 {
			t.Errorf("analysis not applied: %+v", result.Presentation)
		}
		if result.Message == "" {
			t.Error("expected a message")
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{entries: entries})

		resp := postJSON(t, server.URL+"/api/presentations/42/analyze", "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("InvalidModelOutput", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{err: &llm.InvalidJSONError{Raw: "nonsense"}})
		createPresentation(t, server.URL)

		resp := postJSON(t, server.URL+"/api/presentations/1/analyze", "")
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", resp.StatusCode)
		}
		var payload map[string]string
		decodeBody(t, resp, &payload)
		if payload["raw"] != "nonsense" {
			t.Errorf("diagnostic payload should carry raw output, got %+v", payload)
		}

		// The presentation stays unanalyzed.
		got, err := http.Get(server.URL + "/api/presentations/1")
		if err != nil {
			t.Fatal(err)
		}
		var pres models.Presentation
		decodeBody(t, got, &pres)
		if pres.Analyzed {
			t.Error("failed analysis should leave the presentation unanalyzed")
		}
	})

	t.Run("GeneratorFailure", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{err: context.DeadlineExceeded})
		createPresentation(t, server.URL)

		resp := postJSON(t, server.URL+"/api/presentations/1/analyze", "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})
}

func TestUpdatePresentation(t *testing.T) {
	t.Run("ShallowMerge", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{})
		createPresentation(t, server.URL)

		req, err := http.NewRequest(http.MethodPut, server.URL+"/api/presentations/1",
			bytes.NewBufferString(`{"title":"Renamed","analysis":[{"slideIndex":0,"speakerNotes":"edited"}]}`))
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		var pres models.Presentation
		decodeBody(t, resp, &pres)
		if pres.Title != "Renamed" {
			t.Errorf("title not merged: %s", pres.Title)
		}
		if len(pres.Slides) != 2 {
			t.Error("slides should be untouched by a partial update")
		}
		if len(pres.Analysis) != 1 || pres.Analysis[0].SpeakerNotes != "edited" {
			t.Errorf("analysis not replaced: %+v", pres.Analysis)
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		server := newTestServer(t, &stubAnalyzer{})

		req, err := http.NewRequest(http.MethodPut, server.URL+"/api/presentations/5",
			bytes.NewBufferString(`{"title":"x"}`))
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}

func TestHealthAndFallback(t *testing.T) {
	server := newTestServer(t, &stubAnalyzer{})

	t.Run("Health", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health")
		if err != nil {
			t.Fatal(err)
		}
		var payload map[string]string
		decodeBody(t, resp, &payload)
		if payload["status"] != "ok" {
			t.Errorf("expected ok status, got %+v", payload)
		}
	})

	t.Run("UnknownAPIRoute", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/nope")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})
}
