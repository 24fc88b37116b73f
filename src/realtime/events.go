package realtime

import (
	"encoding/json"
	"fmt"
)

// ToolNameAdditionalContext is the single function the session declares. The
// model calls it whenever it needs retrieved context to answer.
const ToolNameAdditionalContext = "get_additional_context"

// ServerEvent is the tagged representation of one message received from the
// realtime API, decoded once at the websocket boundary.
type ServerEvent interface {
	serverEventKind() string
}

// AudioDeltaEvent carries one base64-encoded chunk of synthesized speech
type AudioDeltaEvent struct {
	Delta string
}

// ToolCallEvent signals that the model finished streaming the arguments of a
// function call and is waiting for its output.
type ToolCallEvent struct {
	Name      string
	Arguments string
	CallID    string
}

// InputCommittedEvent signals that the caller's audio buffer was committed
// as one conversational turn.
type InputCommittedEvent struct {
	Text string
}

// UnknownServerEvent preserves the type name of anything not handled above,
// keeping the decoder forward compatible with new protocol messages.
type UnknownServerEvent struct {
	Type string
}

func (AudioDeltaEvent) serverEventKind() string     { return "response.audio.delta" }
func (ToolCallEvent) serverEventKind() string       { return "response.function_call_arguments.done" }
func (InputCommittedEvent) serverEventKind() string { return "input_audio_buffer.committed" }
func (e UnknownServerEvent) serverEventKind() string {
	return e.Type
}

type serverMessage struct {
	Type      string  `json:"type"`
	Delta     *string `json:"delta,omitempty"`
	Name      string  `json:"name,omitempty"`
	Arguments string  `json:"arguments,omitempty"`
	CallID    string  `json:"call_id,omitempty"`
	Text      string  `json:"text,omitempty"`
}

// DecodeServerEvent converts one realtime API websocket message into its
// tagged ServerEvent.
func DecodeServerEvent(data []byte) (ServerEvent, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal realtime message: %w", err)
	}

	switch msg.Type {
	case "response.audio.delta":
		if msg.Delta == nil {
			return UnknownServerEvent{Type: msg.Type}, nil
		}
		return AudioDeltaEvent{Delta: *msg.Delta}, nil

	case "response.function_call_arguments.done":
		return ToolCallEvent{
			Name:      msg.Name,
			Arguments: msg.Arguments,
			CallID:    msg.CallID,
		}, nil

	case "input_audio_buffer.committed":
		return InputCommittedEvent{Text: msg.Text}, nil

	default:
		return UnknownServerEvent{Type: msg.Type}, nil
	}
}

// Client message structures
type audioAppendMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type itemCreateMessage struct {
	Type string           `json:"type"`
	Item functionCallItem `json:"item"`
}

type functionCallItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

type responseCreateMessage struct {
	Type string `json:"type"`
}

// EncodeAudioAppend builds an input_audio_buffer.append message carrying one
// passthrough base64 audio chunk.
func EncodeAudioAppend(audio string) ([]byte, error) {
	return json.Marshal(audioAppendMessage{
		Type:  "input_audio_buffer.append",
		Audio: audio,
	})
}

// EncodeToolOutput builds the conversation.item.create message that submits
// a function call's output, correlated by call ID.
func EncodeToolOutput(callID, output string) ([]byte, error) {
	return json.Marshal(itemCreateMessage{
		Type: "conversation.item.create",
		Item: functionCallItem{
			Type:   "function_call_output",
			CallID: callID,
			Output: output,
		},
	})
}

// EncodeResponseCreate builds the bare continue signal that tells the model
// to synthesize its next turn after a tool output was submitted.
func EncodeResponseCreate() ([]byte, error) {
	return json.Marshal(responseCreateMessage{Type: "response.create"})
}
