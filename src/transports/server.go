package transports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/square-key-labs/voicebridge-ai/src/bridge"
	"github.com/square-key-labs/voicebridge-ai/src/logger"
	"github.com/square-key-labs/voicebridge-ai/src/realtime"
)

// Server exposes the call-handling HTTP surface: a health endpoint, the
// incoming-call TwiML endpoint, and the media-stream websocket that runs one
// bridge session per call.
type Server struct {
	port        int
	realtimeCfg realtime.ConnConfig
	sessionCfg  realtime.SessionConfig
	searcher    bridge.Searcher
	server      *http.Server
	upgrader    websocket.Upgrader
	log         *logger.Logger
}

// ServerConfig holds configuration for the call server
type ServerConfig struct {
	Port     int // Port to listen on (e.g., 5050)
	Realtime realtime.ConnConfig
	Session  realtime.SessionConfig
}

// NewServer creates a call server. The searcher is shared across sessions
// and injected into each session's tool bridge.
func NewServer(config ServerConfig, searcher bridge.Searcher) *Server {
	return &Server{
		port:        config.Port,
		realtimeCfg: config.Realtime,
		sessionCfg:  config.Session,
		searcher:    searcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Twilio connects from varying origins
			},
		},
		log: logger.WithPrefix("TwilioWS"),
	}
}

// Start begins listening for HTTP and websocket connections
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/incoming-call", s.handleIncomingCall)
	mux.HandleFunc("/media-stream", s.handleMediaStream)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	go func() {
		s.log.Info("Listening on port %d", s.port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully stops the server
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Shutdown(context.Background())
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Application is running!"})
}

func (s *Server) handleIncomingCall(w http.ResponseWriter, r *http.Request) {
	twiml, err := buildIncomingCallTwiML(r.Host)
	if err != nil {
		s.log.Error("Failed to build TwiML: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write(twiml)
}

func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	s.log.Info("New connection from %s", r.RemoteAddr)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("Failed to upgrade connection: %v", err)
		return
	}

	aiConn, err := realtime.Dial(s.realtimeCfg)
	if err != nil {
		s.log.Error("Failed to open realtime connection: %v", err)
		conn.Close()
		return
	}

	session := bridge.NewSession(
		newTelephonyConn(conn),
		aiConn,
		bridge.NewToolBridge(s.searcher),
		s.sessionCfg,
	)

	if err := session.Run(r.Context()); err != nil {
		s.log.Error("Session ended with error: %v", err)
	}
}

// telephonyConn adapts a gorilla websocket connection to the session's
// transport interface. Writes are serialized; reads happen from one loop.
type telephonyConn struct {
	conn   *websocket.Conn
	connMu sync.Mutex // Protects concurrent websocket writes
}

func newTelephonyConn(conn *websocket.Conn) *telephonyConn {
	return &telephonyConn{conn: conn}
}

func (c *telephonyConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *telephonyConn) WriteMessage(data []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *telephonyConn) Close() error {
	return c.conn.Close()
}
