package followup

import (
	"context"
	"errors"
	"sync"

	"github.com/bryanwahyu/lawagent/internal/domain/analysis"
	"github.com/bryanwahyu/lawagent/internal/domain/conversation"
)

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
	sets   int
	err    error
}

func newMapStore() *mapStore { return &mapStore{values: map[string]string{}} }

func (m *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", false, m.err
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sets++
	m.values[key] = value
	return nil
}

func (m *mapStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

type recordingView struct {
	mu       sync.Mutex
	shown    []conversation.Message
	appends  int
	renders  int
	clears   int
	results  []analysis.Result
	errors   map[Operation]string
	statuses []string
	busy     map[Operation]bool
}

func newRecordingView() *recordingView {
	return &recordingView{errors: map[Operation]string{}, busy: map[Operation]bool{}}
}

func (v *recordingView) AppendMessage(msg conversation.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.appends++
	v.shown = append(v.shown, msg)
}

func (v *recordingView) RenderTranscript(msgs []conversation.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.renders++
	v.shown = append([]conversation.Message(nil), msgs...)
}

func (v *recordingView) ClearConversation() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clears++
	v.shown = nil
}

func (v *recordingView) RenderResult(r analysis.Result, _ bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.results = append(v.results, r)
}

func (v *recordingView) SetBusy(op Operation, busy bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.busy[op] = busy
}

func (v *recordingView) Status(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, text)
}

func (v *recordingView) ShowError(op Operation, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors[op] = text
}

func (v *recordingView) ClearError(op Operation) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.errors, op)
}

type fakeBackend struct {
	mu           sync.Mutex
	result       analysis.Result
	analyzeErr   error
	answer       string
	followErr    error
	textReqs     []analysis.TextRequest
	uploadReqs   []analysis.UploadRequest
	followReqs   []analysis.FollowupRequest
	onFollowup   func()
	followBlock  chan struct{}
	analyzeBlock chan struct{}
}

func (b *fakeBackend) AnalyzeText(_ context.Context, req analysis.TextRequest) (analysis.Result, error) {
	b.mu.Lock()
	b.textReqs = append(b.textReqs, req)
	block := b.analyzeBlock
	result, err := b.result, b.analyzeErr
	b.mu.Unlock()

	if block != nil {
		<-block
	}
	return result, err
}

func (b *fakeBackend) textCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.textReqs)
}

func (b *fakeBackend) AnalyzeUpload(_ context.Context, req analysis.UploadRequest) (analysis.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uploadReqs = append(b.uploadReqs, req)
	return b.result, b.analyzeErr
}

func (b *fakeBackend) Followup(_ context.Context, req analysis.FollowupRequest) (analysis.FollowupResponse, error) {
	b.mu.Lock()
	b.followReqs = append(b.followReqs, req)
	hook, block := b.onFollowup, b.followBlock
	answer, err := b.answer, b.followErr
	b.mu.Unlock()

	if block != nil {
		<-block
	}
	if hook != nil {
		hook()
	}
	return analysis.FollowupResponse{Answer: answer}, err
}

func (b *fakeBackend) followupCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.followReqs)
}

var errBoom = errors.New("boom")

func sampleResult() analysis.Result {
	return analysis.Result{
		Summary:  "1 issue found",
		Findings: []analysis.Finding{{Issue: "Liability cap", Risk: analysis.Strptr("High")}},
	}
}
