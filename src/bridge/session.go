package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/square-key-labs/voicebridge-ai/src/logger"
	"github.com/square-key-labs/voicebridge-ai/src/realtime"
	"github.com/square-key-labs/voicebridge-ai/src/telephony"
)

// State tracks one session's lifecycle
type State int

const (
	// StateInitializing means the realtime connection is open but the
	// session configuration has not been sent yet
	StateInitializing State = iota
	// StateActive means both relay loops are running
	StateActive
	// StateClosing means one side closed and the other is being torn down
	StateClosing
	// StateClosed is terminal; both transport handles are released
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// AIConn is the session's handle to the realtime API connection
type AIConn interface {
	SendSessionUpdate(session realtime.SessionConfig) error
	SendAudioAppend(audio string) error
	SendToolOutput(callID, output string) error
	SendResponseCreate() error
	ReadEvent() (realtime.ServerEvent, error)
	Close() error
}

// TelephonyConn is the session's handle to the Twilio media stream
type TelephonyConn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Session owns one call: it initializes the realtime side, then relays audio
// in both directions until either transport closes. The stream SID is written
// only by the inbound loop and read only by the outbound loop.
type Session struct {
	telephony  TelephonyConn
	ai         AIConn
	toolBridge *ToolBridge
	sessionCfg realtime.SessionConfig
	log        *logger.Logger

	mu        sync.RWMutex
	streamSID string
	state     State
}

// NewSession creates a session over an accepted telephony connection and an
// open realtime connection. Run drives it to completion.
func NewSession(tel TelephonyConn, ai AIConn, toolBridge *ToolBridge, sessionCfg realtime.SessionConfig) *Session {
	return &Session{
		telephony:  tel,
		ai:         ai,
		toolBridge: toolBridge,
		sessionCfg: sessionCfg,
		log:        logger.WithPrefix("Session"),
		state:      StateInitializing,
	}
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	if state > s.state {
		s.state = state
	}
	s.mu.Unlock()
}

// StreamSID returns the call's stream identifier, or "" before start arrives
func (s *Session) StreamSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streamSID
}

func (s *Session) setStreamSID(sid string) {
	s.mu.Lock()
	if s.streamSID == "" {
		s.streamSID = sid
	}
	s.mu.Unlock()
}

// Run sends the session initialization message, then relays until either
// side terminates. Both transport handles are closed before it returns,
// on every exit path.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		s.setState(StateClosing)
		s.telephony.Close()
		s.ai.Close()
		s.setState(StateClosed)
		s.log.Info("Session closed (stream: %s)", s.StreamSID())
	}()

	if err := s.ai.SendSessionUpdate(s.sessionCfg); err != nil {
		return fmt.Errorf("failed to initialize realtime session: %w", err)
	}
	s.setState(StateActive)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.inboundLoop()
	}()
	go func() {
		defer wg.Done()
		s.outboundLoop(ctx)
	}()
	wg.Wait()

	return nil
}

// inboundLoop relays caller audio to the realtime API. It owns the stream
// SID: no other goroutine writes it.
func (s *Session) inboundLoop() {
	defer s.setState(StateClosing)

	for {
		data, err := s.telephony.ReadMessage()
		if err != nil {
			s.log.Warn("Telephony connection closed: %v", err)
			s.ai.Close()
			return
		}

		event, err := telephony.Decode(data)
		if err != nil {
			s.log.Warn("Skipping undecodable telephony message: %v", err)
			continue
		}

		switch e := event.(type) {
		case telephony.StartEvent:
			s.setStreamSID(e.StreamSID)
			s.log.Info("Stream started with SID: %s", e.StreamSID)

		case telephony.MediaEvent:
			if err := s.ai.SendAudioAppend(e.Payload); err != nil {
				s.log.Warn("Realtime connection closed on send: %v", err)
				return
			}

		case telephony.StopEvent:
			s.log.Info("Stream stop event received")
			s.ai.Close()
			return

		case telephony.MarkEvent:
			s.log.Debug("Mark received: %s", e.Name)

		case telephony.UnknownEvent:
			s.log.Debug("Ignoring telephony event: %s", e.Event)
		}
	}
}

// outboundLoop relays synthesized audio back to the caller and resolves tool
// calls inline, one at a time, before consuming further events.
func (s *Session) outboundLoop(ctx context.Context) {
	for {
		event, err := s.ai.ReadEvent()
		if err != nil {
			s.log.Warn("Realtime read ended: %v", err)
			s.setState(StateClosing)
			return
		}

		switch e := event.(type) {
		case realtime.AudioDeltaEvent:
			if err := s.forwardAudioDelta(e.Delta); err != nil {
				s.log.Warn("Telephony connection closed on send: %v", err)
				s.setState(StateClosing)
				return
			}

		case realtime.ToolCallEvent:
			if e.Name != realtime.ToolNameAdditionalContext {
				s.log.Warn("Ignoring unexpected tool call: %s", e.Name)
				continue
			}
			if err := s.toolBridge.Handle(ctx, s.ai, e); err != nil {
				s.log.Warn("Realtime connection closed during tool call: %v", err)
				s.setState(StateClosing)
				return
			}

		case realtime.InputCommittedEvent:
			s.log.Debug("Input committed: %s", e.Text)

		case realtime.UnknownServerEvent:
			s.log.Debug("Ignoring realtime event: %s", e.Type)
		}
	}
}

// forwardAudioDelta sends one audio chunk to the caller followed by a mark
// checkpoint. Deltas arriving before the start event carry no routable
// stream SID and are dropped.
func (s *Session) forwardAudioDelta(delta string) error {
	sid := s.StreamSID()
	if sid == "" {
		s.log.Warn("Dropping audio delta received before stream start")
		return nil
	}

	media, err := telephony.EncodeMedia(sid, delta)
	if err != nil {
		return err
	}
	if err := s.telephony.WriteMessage(media); err != nil {
		return err
	}

	mark, err := telephony.EncodeMark(sid, uuid.NewString())
	if err != nil {
		return err
	}
	return s.telephony.WriteMessage(mark)
}
