package realtime

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/square-key-labs/voicebridge-ai/src/logger"
)

// Conn is one websocket connection to the Azure OpenAI realtime API. Writes
// may come from both session loops, so they are serialized with a mutex;
// reads happen from a single loop and need no locking.
type Conn struct {
	conn   *websocket.Conn
	connMu sync.Mutex // Protects concurrent websocket writes
	log    *logger.Logger
}

// ConnConfig holds connection settings for the realtime API
type ConnConfig struct {
	Endpoint string // wss:// endpoint including deployment and api-version
	APIKey   string
}

// Dial opens a realtime API connection. The caller is responsible for
// sending the session.update initialization message before relaying audio.
func Dial(config ConnConfig) (*Conn, error) {
	header := map[string][]string{
		"api-key": {config.APIKey},
	}

	wsConn, _, err := websocket.DefaultDialer.Dial(config.Endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to realtime API: %w", err)
	}

	c := &Conn{
		conn: wsConn,
		log:  logger.WithPrefix("Realtime"),
	}

	c.log.Info("Connected to realtime API")
	return c, nil
}

func (c *Conn) send(data []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SendSessionUpdate sends the session initialization message
func (c *Conn) SendSessionUpdate(session SessionConfig) error {
	data, err := EncodeSessionUpdate(session)
	if err != nil {
		return fmt.Errorf("failed to encode session update: %w", err)
	}
	if err := c.send(data); err != nil {
		return fmt.Errorf("failed to send session update: %w", err)
	}
	return nil
}

// SendAudioAppend forwards one base64 audio chunk from the caller
func (c *Conn) SendAudioAppend(audio string) error {
	data, err := EncodeAudioAppend(audio)
	if err != nil {
		return fmt.Errorf("failed to encode audio append: %w", err)
	}
	return c.send(data)
}

// SendToolOutput submits a function call's output correlated by call ID
func (c *Conn) SendToolOutput(callID, output string) error {
	data, err := EncodeToolOutput(callID, output)
	if err != nil {
		return fmt.Errorf("failed to encode tool output: %w", err)
	}
	return c.send(data)
}

// SendResponseCreate signals the model to continue with its next turn
func (c *Conn) SendResponseCreate() error {
	data, err := EncodeResponseCreate()
	if err != nil {
		return fmt.Errorf("failed to encode response create: %w", err)
	}
	return c.send(data)
}

// ReadEvent blocks until the next server event arrives and decodes it
func (c *Conn) ReadEvent() (ServerEvent, error) {
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read realtime message: %w", err)
	}
	return DecodeServerEvent(message)
}

// Close shuts down the websocket connection
func (c *Conn) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn.Close()
}
