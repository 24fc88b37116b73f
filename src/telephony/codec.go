package telephony

import (
	"encoding/json"
	"fmt"
)

// Event is the tagged representation of one Twilio Media Streams message,
// decoded once at the websocket boundary.
type Event interface {
	eventKind() string
}

// StartEvent announces the stream identifier for the call
type StartEvent struct {
	StreamSID string
	CallSID   string
}

// MediaEvent carries one base64-encoded audio chunk from the caller. The
// payload is passed through unchanged; no decoding happens in the bridge.
type MediaEvent struct {
	Payload string
}

// StopEvent signals that call media has ended
type StopEvent struct{}

// MarkEvent is a playback synchronization checkpoint echoed back by Twilio
type MarkEvent struct {
	Name string
}

// UnknownEvent preserves the raw event name for anything not handled above
type UnknownEvent struct {
	Event string
}

func (StartEvent) eventKind() string   { return "start" }
func (MediaEvent) eventKind() string   { return "media" }
func (StopEvent) eventKind() string    { return "stop" }
func (MarkEvent) eventKind() string    { return "mark" }
func (UnknownEvent) eventKind() string { return "unknown" }

// Twilio message structures
type twilioMessage struct {
	Event     string                 `json:"event"`
	StreamSid string                 `json:"streamSid,omitempty"`
	Media     *twilioMedia           `json:"media,omitempty"`
	Start     *twilioStart           `json:"start,omitempty"`
	Mark      *twilioMark            `json:"mark,omitempty"`
	Stop      map[string]interface{} `json:"stop,omitempty"`
}

type twilioMedia struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"` // base64-encoded mulaw audio
}

type twilioStart struct {
	StreamSid        string                 `json:"streamSid"`
	CallSid          string                 `json:"callSid"`
	AccountSid       string                 `json:"accountSid"`
	Tracks           []string               `json:"tracks"`
	MediaFormat      map[string]interface{} `json:"mediaFormat"`
	CustomParameters map[string]string      `json:"customParameters,omitempty"`
}

type twilioMark struct {
	Name string `json:"name"`
}

// Decode converts one Twilio websocket text message into its tagged Event
func Decode(data []byte) (Event, error) {
	var msg twilioMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Twilio message: %w", err)
	}

	switch msg.Event {
	case "start":
		if msg.Start == nil {
			return nil, fmt.Errorf("start event missing start data")
		}
		return StartEvent{
			StreamSID: msg.Start.StreamSid,
			CallSID:   msg.Start.CallSid,
		}, nil

	case "media":
		if msg.Media == nil {
			return nil, fmt.Errorf("media event missing media data")
		}
		return MediaEvent{Payload: msg.Media.Payload}, nil

	case "stop":
		return StopEvent{}, nil

	case "mark":
		name := ""
		if msg.Mark != nil {
			name = msg.Mark.Name
		}
		return MarkEvent{Name: name}, nil

	default:
		return UnknownEvent{Event: msg.Event}, nil
	}
}

// EncodeMedia builds an outbound media envelope addressed by stream SID
func EncodeMedia(streamSID, payload string) ([]byte, error) {
	msg := twilioMessage{
		Event:     "media",
		StreamSid: streamSID,
		Media: &twilioMedia{
			Payload: payload,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Twilio media message: %w", err)
	}
	return data, nil
}

// EncodeMark builds an outbound mark checkpoint for playback tracking
func EncodeMark(streamSID, name string) ([]byte, error) {
	msg := twilioMessage{
		Event:     "mark",
		StreamSid: streamSID,
		Mark: &twilioMark{
			Name: name,
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Twilio mark message: %w", err)
	}
	return data, nil
}
