package spotter

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/lawagent/internal/application"
	"github.com/bryanwahyu/lawagent/internal/domain/ai"
	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
)

type fakeAI struct {
	spot     ai.SpotRequest
	followup analysis.FollowupRequest
	err      error
}

func (f *fakeAI) SpotIssues(_ context.Context, req ai.SpotRequest) (analysis.Result, error) {
	f.spot = req
	if f.err != nil {
		return analysis.Result{}, f.err
	}
	return analysis.Result{
		Summary:  "1 issue found",
		Findings: []analysis.Finding{{Issue: "Liability cap", Risk: analysis.Strptr("High")}},
	}, nil
}

func (f *fakeAI) AnswerFollowup(_ context.Context, req analysis.FollowupRequest) (string, error) {
	f.followup = req
	if f.err != nil {
		return "", f.err
	}
	return "It limits recovery.", nil
}

type memRepo struct {
	mu      sync.Mutex
	records []*analysis.Record
	err     error
}

func (r *memRepo) Save(_ context.Context, rec *analysis.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*analysis.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *memRepo) Latest(_ context.Context, limit int) ([]*analysis.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*analysis.Record, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

type memDocs struct {
	key         string
	body        string
	contentType string
	err         error
}

func (d *memDocs) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	data, _ := io.ReadAll(body)
	d.key, d.body, d.contentType = key, string(data), contentType
	return "http://minio.local/docs/" + key, nil
}

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(client ai.Client, repo analysis.Repository, docs analysis.DocumentStore) *Service {
	svc := NewService(client, repo, docs)
	svc.Clock = application.FixedClock(fixedTime)
	return svc
}

func TestAnalyzeTextValidation(t *testing.T) {
	svc := newTestService(&fakeAI{}, nil, nil)
	tests := []struct {
		name string
		req  analysis.TextRequest
		want string
	}{
		{"no text", analysis.TextRequest{Text: "  ", Instructions: "Review"}, MsgDocumentRequired},
		{"no instructions", analysis.TextRequest{Text: "Clause", Instructions: " "}, MsgInstructionsRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AnalyzeText(context.Background(), tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Message != tt.want {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestAnalyzeTextRecordsAndRawJSON(t *testing.T) {
	client := &fakeAI{}
	repo := &memRepo{}
	svc := newTestService(client, repo, nil)
	style := " concise "

	result, err := svc.AnalyzeText(context.Background(), analysis.TextRequest{
		Text:         "The Supplier's liability is capped.",
		Instructions: " Spot risks ",
		Style:        &style,
		ReturnJSON:   true,
	})
	if err != nil {
		t.Fatalf("AnalyzeText() error = %v", err)
	}
	if client.spot.Instructions != "Spot risks" || client.spot.Style != "concise" {
		t.Errorf("spot request = %+v", client.spot)
	}
	if !result.HasRawJSON() || !strings.Contains(string(result.RawJSON), `"Liability cap"`) {
		t.Errorf("raw json = %s", result.RawJSON)
	}
	if result.Citations == nil {
		t.Error("citations should be an empty slice, not nil")
	}

	if len(repo.records) != 1 {
		t.Fatalf("records = %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.Source != analysis.SourceText || rec.Style != "concise" || !rec.CreatedAt.Equal(fixedTime) || rec.ID == "" {
		t.Errorf("record = %+v", rec)
	}
	if strings.Contains(rec.Result, "raw_json") {
		t.Errorf("recorded result carries raw_json: %s", rec.Result)
	}
}

func TestAnalyzeTextWithoutRawJSON(t *testing.T) {
	svc := newTestService(&fakeAI{}, nil, nil)
	result, err := svc.AnalyzeText(context.Background(), analysis.TextRequest{Text: "x", Instructions: "y"})
	if err != nil {
		t.Fatal(err)
	}
	if result.HasRawJSON() {
		t.Errorf("raw json = %s", result.RawJSON)
	}
}

func TestAnalyzeUploadStoresDocument(t *testing.T) {
	repo := &memRepo{}
	docs := &memDocs{}
	svc := newTestService(&fakeAI{}, repo, docs)

	_, err := svc.AnalyzeUpload(context.Background(), UploadCommand{
		Instructions: "Review",
		File:         analysis.Upload{Name: `C:\docs\nda.txt`, ContentType: "text/plain", Size: 6},
		Data:         []byte("Clause"),
		Text:         "Clause",
	})
	if err != nil {
		t.Fatalf("AnalyzeUpload() error = %v", err)
	}
	rec := repo.records[0]
	if docs.key != "uploads/"+rec.ID+"/nda.txt" || docs.body != "Clause" || docs.contentType != "text/plain" {
		t.Errorf("stored %q (%s) %q", docs.key, docs.contentType, docs.body)
	}
	if rec.Source != analysis.SourceUpload || rec.DocumentURL != "http://minio.local/docs/"+docs.key {
		t.Errorf("record = %+v", rec)
	}
}

func TestAnalyzeSurvivesStorageFailures(t *testing.T) {
	repo := &memRepo{err: errors.New("db down")}
	svc := newTestService(&fakeAI{}, repo, &memDocs{err: errors.New("bucket gone")})

	_, err := svc.AnalyzeUpload(context.Background(), UploadCommand{
		Instructions: "Review",
		File:         analysis.Upload{Name: "nda.txt"},
		Data:         []byte("Clause"),
		Text:         "Clause",
	})
	if err != nil {
		t.Fatalf("AnalyzeUpload() error = %v", err)
	}
}

func TestAnalyzeProviderError(t *testing.T) {
	perr := &ai.ProviderError{Message: "Rate limit reached.", Err: ai.ErrQuotaExceeded}
	svc := newTestService(&fakeAI{err: perr}, nil, nil)

	_, err := svc.AnalyzeText(context.Background(), analysis.TextRequest{Text: "x", Instructions: "y"})
	if !errors.Is(err, ai.ErrQuotaExceeded) {
		t.Fatalf("error = %v", err)
	}
}

func TestFollowup(t *testing.T) {
	client := &fakeAI{}
	svc := newTestService(client, nil, nil)

	for _, tt := range []struct {
		req  analysis.FollowupRequest
		want string
	}{
		{analysis.FollowupRequest{Question: " ", Context: "ctx"}, MsgQuestionRequired},
		{analysis.FollowupRequest{Question: "Why?", Context: "  "}, MsgContextRequired},
	} {
		_, err := svc.Followup(context.Background(), tt.req)
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Message != tt.want {
			t.Errorf("error = %v, want %q", err, tt.want)
		}
	}

	resp, err := svc.Followup(context.Background(), analysis.FollowupRequest{Question: " Why? ", Context: "Summary:\nx"})
	if err != nil {
		t.Fatalf("Followup() error = %v", err)
	}
	if resp.Answer != "It limits recovery." || client.followup.Question != "Why?" {
		t.Errorf("resp = %+v, request = %+v", resp, client.followup)
	}
}

func TestRecentAndGet(t *testing.T) {
	if _, err := newTestService(&fakeAI{}, nil, nil).Recent(context.Background(), 5); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("error = %v, want ErrNoHistory", err)
	}

	repo := &memRepo{}
	svc := newTestService(&fakeAI{}, repo, nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.AnalyzeText(context.Background(), analysis.TextRequest{Text: "x", Instructions: "y"}); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := svc.Recent(context.Background(), 2)
	if err != nil || len(recent) != 2 || recent[0].ID != repo.records[2].ID {
		t.Fatalf("recent = %v, err = %v", recent, err)
	}
	got, err := svc.Get(context.Background(), repo.records[0].ID)
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	if got, err := svc.Get(context.Background(), "not-a-uuid"); got != nil || err != nil {
		t.Errorf("Get(bad id) = %v, %v", got, err)
	}
}
