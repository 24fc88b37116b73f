package bridge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/square-key-labs/voicebridge-ai/src/logger"
	"github.com/square-key-labs/voicebridge-ai/src/realtime"
)

const (
	// Spoken placeholders keep the conversation moving when retrieval comes
	// back empty or broken; the caller never hears a dropped turn.
	noResultsOutput      = "No relevant information found in Azure Search."
	retrievalErrorOutput = "Error retrieving data from Azure Search."
)

// Searcher is the retrieval backend the tool bridge queries. An empty result
// list is a valid outcome; errors are recoverable and never end the session.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// ToolSender is the slice of the realtime connection the bridge borrows to
// submit a result. It never retains the handle beyond one Handle call.
type ToolSender interface {
	SendToolOutput(callID, output string) error
	SendResponseCreate() error
}

// ToolBridge answers get_additional_context calls from the model with chunks
// retrieved from the search backend.
type ToolBridge struct {
	searcher Searcher
	log      *logger.Logger
}

// NewToolBridge creates a tool bridge backed by the given searcher
func NewToolBridge(searcher Searcher) *ToolBridge {
	return &ToolBridge{
		searcher: searcher,
		log:      logger.WithPrefix("ToolBridge"),
	}
}

type toolArguments struct {
	Query string `json:"query"`
}

// Handle resolves one tool call: it extracts the query, runs the retrieval,
// submits the output correlated by call ID, and signals the model to resume.
// Exactly one output and one resume signal go out on every path; only a send
// failure on the realtime connection is returned as an error.
func (b *ToolBridge) Handle(ctx context.Context, sender ToolSender, call realtime.ToolCallEvent) error {
	var args toolArguments
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		b.log.Warn("Malformed tool arguments for call %s: %v", call.CallID, err)
	}

	output := b.retrieve(ctx, args.Query)
	b.log.Info("Tool call %s resolved (%d chars)", call.CallID, len(output))

	if err := sender.SendToolOutput(call.CallID, output); err != nil {
		return err
	}
	return sender.SendResponseCreate()
}

func (b *ToolBridge) retrieve(ctx context.Context, query string) string {
	chunks, err := b.searcher.Search(ctx, query)
	if err != nil {
		b.log.Error("Search failed for query %q: %v", query, err)
		return retrievalErrorOutput
	}
	if len(chunks) == 0 {
		return noResultsOutput
	}
	return strings.Join(chunks, "\n")
}
