package transports

import (
	"encoding/xml"
	"fmt"
)

// TwiML voice response returned for incoming calls. It greets the caller and
// instructs Twilio to open the media-stream websocket back to this bridge.
type voiceResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Verbs   []interface{}
}

type sayVerb struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type pauseVerb struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

type connectVerb struct {
	XMLName xml.Name   `xml:"Connect"`
	Stream  streamNoun `xml:"Stream"`
}

type streamNoun struct {
	URL string `xml:"url,attr"`
}

// buildIncomingCallTwiML renders the call-answer directive pointing the media
// stream at wss://<host>/media-stream.
func buildIncomingCallTwiML(host string) ([]byte, error) {
	response := voiceResponse{
		Verbs: []interface{}{
			sayVerb{Text: "Please wait while we connect your call."},
			pauseVerb{Length: 1},
			sayVerb{Text: "You can start talking now!"},
			connectVerb{
				Stream: streamNoun{URL: fmt.Sprintf("wss://%s/media-stream", host)},
			},
		},
	}

	body, err := xml.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TwiML response: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
