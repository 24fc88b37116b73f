package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/square-key-labs/voicebridge-ai/src/realtime"
)

type fakeSearcher struct {
	results []string
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]string, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

type sentMessage struct {
	kind   string // "tool_output" or "response_create"
	callID string
	output string
}

type recordingSender struct {
	sent          []sentMessage
	toolOutputErr error
}

func (r *recordingSender) SendToolOutput(callID, output string) error {
	if r.toolOutputErr != nil {
		return r.toolOutputErr
	}
	r.sent = append(r.sent, sentMessage{kind: "tool_output", callID: callID, output: output})
	return nil
}

func (r *recordingSender) SendResponseCreate() error {
	r.sent = append(r.sent, sentMessage{kind: "response_create"})
	return nil
}

func toolCall(callID, arguments string) realtime.ToolCallEvent {
	return realtime.ToolCallEvent{
		Name:      realtime.ToolNameAdditionalContext,
		Arguments: arguments,
		CallID:    callID,
	}
}

// assertOutputThenResume checks the invariant: exactly one tool output and
// one resume signal, in that order.
func assertOutputThenResume(t *testing.T, sender *recordingSender, callID, output string) {
	t.Helper()
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2: %v", len(sender.sent), sender.sent)
	}
	if sender.sent[0].kind != "tool_output" {
		t.Fatalf("first message = %q, want tool_output", sender.sent[0].kind)
	}
	if sender.sent[0].callID != callID {
		t.Fatalf("call_id = %q, want %q", sender.sent[0].callID, callID)
	}
	if sender.sent[0].output != output {
		t.Fatalf("output = %q, want %q", sender.sent[0].output, output)
	}
	if sender.sent[1].kind != "response_create" {
		t.Fatalf("second message = %q, want response_create", sender.sent[1].kind)
	}
}

func TestHandleJoinsChunks(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"chunk one", "chunk two"}}
	sender := &recordingSender{}

	err := NewToolBridge(searcher).Handle(context.Background(), sender, toolCall("c1", `{"query":"coverage limits"}`))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(searcher.queries) != 1 || searcher.queries[0] != "coverage limits" {
		t.Fatalf("queries = %v, want [coverage limits]", searcher.queries)
	}
	assertOutputThenResume(t, sender, "c1", "chunk one\nchunk two")
}

func TestHandleEmptyResults(t *testing.T) {
	searcher := &fakeSearcher{results: nil}
	sender := &recordingSender{}

	err := NewToolBridge(searcher).Handle(context.Background(), sender, toolCall("c1", `{"query":"coverage limits"}`))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	assertOutputThenResume(t, sender, "c1", "No relevant information found in Azure Search.")
}

func TestHandleRetrievalFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("backend down")}
	sender := &recordingSender{}

	err := NewToolBridge(searcher).Handle(context.Background(), sender, toolCall("c2", `{"query":"plan details"}`))
	if err != nil {
		t.Fatalf("Handle() error = %v, retrieval failures must not surface", err)
	}

	assertOutputThenResume(t, sender, "c2", "Error retrieving data from Azure Search.")
}

func TestHandleMissingQuery(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"chunk"}}
	sender := &recordingSender{}

	err := NewToolBridge(searcher).Handle(context.Background(), sender, toolCall("c3", `{}`))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(searcher.queries) != 1 || searcher.queries[0] != "" {
		t.Fatalf("queries = %v, want one empty query", searcher.queries)
	}
	assertOutputThenResume(t, sender, "c3", "chunk")
}

func TestHandleMalformedArguments(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"chunk"}}
	sender := &recordingSender{}

	err := NewToolBridge(searcher).Handle(context.Background(), sender, toolCall("c4", `not json`))
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if len(searcher.queries) != 1 || searcher.queries[0] != "" {
		t.Fatalf("queries = %v, want one empty query", searcher.queries)
	}
	assertOutputThenResume(t, sender, "c4", "chunk")
}

func TestHandleSendFailure(t *testing.T) {
	searcher := &fakeSearcher{results: []string{"chunk"}}
	sender := &recordingSender{toolOutputErr: fmt.Errorf("connection closed")}

	err := NewToolBridge(searcher).Handle(context.Background(), sender, toolCall("c5", `{"query":"q"}`))
	if err == nil {
		t.Fatal("expected send failure to propagate")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("sent = %v, want none after failed output", sender.sent)
	}
}
