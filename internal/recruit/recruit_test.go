package recruit

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	requests := make([]recordedRequest, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, recordedRequest{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

func TestActionsPostToServiceEndpoints(t *testing.T) {
	srv, requests := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"message": "ok"}`))
	})

	client := New(zap.NewNop(), srv.URL+"/", "secret")
	ctx := context.Background()

	actions := []func(context.Context) error{
		client.ExtractResumeData,
		client.SummarizePostings,
		client.ComputeMatchScores,
		client.SelectCandidates,
		client.SendInvitations,
	}
	for _, action := range actions {
		if err := action(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	expected := []string{ExtractPath, SummarizePath, MatchPath, SelectPath, InvitePath}
	if len(*requests) != len(expected) {
		t.Fatalf("expected %d requests, got %d", len(expected), len(*requests))
	}
	for i, req := range *requests {
		if req.method != http.MethodPost {
			t.Fatalf("expected POST, got %s", req.method)
		}
		if req.path != expected[i] {
			t.Fatalf("expected path %s, got %s", expected[i], req.path)
		}
		if req.auth != "Bearer secret" {
			t.Fatalf("unexpected authorization header: %q", req.auth)
		}
	}
}

func TestActionSurfacesServiceError(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "no such table: applications"}`))
	})

	client := New(zap.NewNop(), srv.URL, "")
	err := client.ComputeMatchScores(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
	if !strings.Contains(err.Error(), "no such table: applications") {
		t.Fatalf("expected service message in error, got %q", err.Error())
	}
}

func TestEmptyTokenSkipsAuthorization(t *testing.T) {
	srv, requests := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[]`))
	})

	client := New(nil, srv.URL, "  ")
	if _, err := client.GetSelectedCandidates(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if (*requests)[0].auth != "" {
		t.Fatalf("expected no authorization header, got %q", (*requests)[0].auth)
	}
}

func TestGetApplicationsDecodesSQLiteBooleans(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": 2, "applicantName": "Ann", "jobTitle": "Go Developer", "jobId": 1, "resumeFile": "ann.pdf",
			 "appliedAt": "2024-05-02T10:00:00", "extractedData": "summary", "matchScore": "{\"skills_score\": 80}",
			 "selected": 1, "invitationSent": 0},
			{"id": 1, "applicantName": "Bob", "jobTitle": "Go Developer", "jobId": 1, "resumeFile": "bob.pdf",
			 "appliedAt": "2024-05-01T10:00:00", "extractedData": null, "matchScore": null,
			 "selected": true, "invitationSent": true}
		]`))
	})

	client := New(zap.NewNop(), srv.URL, "")
	applications, err := client.GetApplications(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(applications) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(applications))
	}

	ann := applications[0]
	if ann.ID != 2 || ann.PostingID != 1 || ann.ApplicantName != "Ann" {
		t.Fatalf("unexpected application: %+v", ann)
	}
	if !ann.Selected || ann.InvitationSent {
		t.Fatalf("unexpected flags: selected=%v invited=%v", ann.Selected, ann.InvitationSent)
	}
	if ann.MatchScore != `{"skills_score": 80}` {
		t.Fatalf("unexpected match score: %q", ann.MatchScore)
	}

	bob := applications[1]
	if bob.MatchScore != "" || bob.ExtractedData != "" {
		t.Fatalf("expected empty optional fields, got %+v", bob)
	}

	selected, invited := CountSelection(applications)
	if selected != 2 || invited != 1 {
		t.Fatalf("expected 2 selected and 1 invited, got %d and %d", selected, invited)
	}
}

func TestGetPostingsAcceptsMaxCandidatesTypo(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "Job Title": "Go Developer", "Job Description": "Build services", "threshold": 70, "maxCandidatest": 3, "summary": null},
			{"id": 2, "Job Title": "QA", "Job Description": "Test things", "threshold": 50.5, "maxCandidates": 5, "summary": "Testing role"}
		]`))
	})

	client := New(zap.NewNop(), srv.URL, "")
	postings, err := client.GetPostings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}
	if postings[0].Title != "Go Developer" || postings[0].MaxCandidates != 3 || postings[0].Threshold != 70 {
		t.Fatalf("unexpected first posting: %+v", postings[0])
	}
	if postings[1].MaxCandidates != 5 || postings[1].Summary != "Testing role" || postings[1].Threshold != 50.5 {
		t.Fatalf("unexpected second posting: %+v", postings[1])
	}

	if FindPosting(postings, 2) != postings[1] {
		t.Fatalf("expected to find posting 2")
	}
	if FindPosting(postings, 9) != nil {
		t.Fatalf("expected nil for unknown posting")
	}
}

func TestDecodePostingMaxCandidates(t *testing.T) {
	tests := []struct {
		name string
		item map[string]any
		want int
	}{
		{name: "typo key number", item: map[string]any{"maxCandidatest": float64(3)}, want: 3},
		{name: "typo key string", item: map[string]any{"maxCandidatest": "4"}, want: 4},
		{name: "correct key wins", item: map[string]any{"maxCandidates": "5", "maxCandidatest": float64(9)}, want: 5},
		{name: "missing", item: map[string]any{"id": float64(1)}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posting, err := decodePosting(tt.item)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if posting.MaxCandidates != tt.want {
				t.Fatalf("expected max candidates %d, got %d", tt.want, posting.MaxCandidates)
			}
			if _, ok := tt.item["maxCandidates"]; ok && tt.name != "correct key wins" {
				t.Fatalf("input item must not be modified")
			}
		})
	}
}

func TestGetJSONHandlesGzip(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte(`[{"id": 7, "username": "Ann", "jobTitle": "QA", "matchScore": "{\"similarity\": 0.9}", "selectedAt": "2024-05-02", "invitationSent": 1}]`))
		gz.Close()
	})

	client := New(zap.NewNop(), srv.URL, "")
	candidates, err := client.GetSelectedCandidates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Username != "Ann" || !candidates[0].InvitationSent {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestAnalyzeResumesReportsPendingExtraction(t *testing.T) {
	srv, requests := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": 1, "jobId": 1, "extractedData": "done"},
			{"id": 2, "jobId": 1, "extractedData": null}
		]`))
	})

	core, observed := observer.New(zapcore.InfoLevel)
	client := New(zap.New(core), srv.URL, "")

	if err := client.AnalyzeResumes(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if (*requests)[0].method != http.MethodGet || (*requests)[0].path != ApplicationsPath {
		t.Fatalf("unexpected request: %+v", (*requests)[0])
	}

	entries := observed.FilterMessage("applications without extracted resume data").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["analyzed"] != int64(1) {
		t.Fatalf("unexpected analyzed count: %v", entries[0].ContextMap()["analyzed"])
	}
}

func TestAnalyzeResumesFailsWhenServiceUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := New(zap.NewNop(), srv.URL, "")
	if err := client.AnalyzeResumes(context.Background()); !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
}
