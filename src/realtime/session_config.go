package realtime

import "encoding/json"

const defaultInstructions = "You are an AI assistant providing factual answers ONLY from the search. " +
	"If USER says hello Always respond with with Hello, I am Rose from Insurance Company. How can I help you today? " +
	"Use the `get_additional_context` function to retrieve relevant information." +
	"Keep all your responses very consise and straight to point and not more than 15 words" +
	"If USER says Thank You,  Always respond with with You are welcome, Is there anything else I can help you with?"

// SessionConfig holds the per-session settings sent once after the realtime
// connection opens. Turn detection and audio formats are fixed for the whole
// session; only the voice varies by deployment.
type SessionConfig struct {
	Voice        string
	Instructions string
}

type sessionUpdateMessage struct {
	Type    string         `json:"type"`
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	TurnDetection     turnDetection `json:"turn_detection"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Tools             []sessionTool `json:"tools"`
}

type turnDetection struct {
	Type string `json:"type"`
}

type sessionTool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  toolParameters `json:"parameters"`
}

type toolParameters struct {
	Type       string                  `json:"type"`
	Properties map[string]toolProperty `json:"properties"`
}

type toolProperty struct {
	Type string `json:"type"`
}

// EncodeSessionUpdate builds the session.update message: server-driven turn
// detection, g711 mulaw in and out, the configured voice, the grounding
// instructions, and the single context retrieval tool.
func EncodeSessionUpdate(cfg SessionConfig) ([]byte, error) {
	instructions := cfg.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}

	msg := sessionUpdateMessage{
		Type: "session.update",
		Session: sessionPayload{
			TurnDetection:     turnDetection{Type: "server_vad"},
			InputAudioFormat:  "g711_ulaw",
			OutputAudioFormat: "g711_ulaw",
			Voice:             cfg.Voice,
			Instructions:      instructions,
			Tools: []sessionTool{
				{
					Type:        "function",
					Name:        ToolNameAdditionalContext,
					Description: "Fetch context from Azure Search based on a user query.",
					Parameters: toolParameters{
						Type: "object",
						Properties: map[string]toolProperty{
							"query": {Type: "string"},
						},
					},
				},
			},
		},
	}

	return json.Marshal(msg)
}
