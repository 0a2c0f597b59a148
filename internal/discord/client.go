// Package discord provides a client for Discord's local IPC socket,
// enabling Rich Presence updates via the SET_ACTIVITY command.
//
// The [Client] type manages connection lifecycle, command framing, and the
// inbound read loop that answers keep-alive pings. Platform-specific socket
// discovery is handled by conn_unix.go and conn_windows.go.
package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"
)

// ///////////////////////////////////////////////
// Sentinel Errors
// ///////////////////////////////////////////////

// ErrNotConnected is returned when an operation requires an active connection.
var ErrNotConnected = errors.New("not connected")

// ErrHandshakeFailed is returned when Discord rejects or fails to answer
// the handshake.
var ErrHandshakeFailed = errors.New("handshake failed")

// handshakeTimeout bounds the wait for Discord's handshake response.
// Steady-state reads have no deadline; closure is detected by the read loop.
const handshakeTimeout = 5 * time.Second

// ///////////////////////////////////////////////
// Data Types
// ///////////////////////////////////////////////

// Timestamps holds the start timestamp for an activity.
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
}

// Assets holds image keys and tooltip text for an activity.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Activity represents a Discord Rich Presence activity.
type Activity struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
}

// ///////////////////////////////////////////////
// Client
// ///////////////////////////////////////////////

// Client manages a connection to Discord's IPC socket.
//
// All writes are serialized under one mutex, so at most one frame is in
// flight per connection. Inbound traffic after the handshake is consumed by
// a background read loop which answers OpPing with OpPong and tears the
// connection down on OpClose or read failure.
type Client struct {
	// appID is the Discord application (OAuth2 client) identifier.
	appID string

	// mu protects conn and nonce and serializes all frame writes.
	mu sync.Mutex
	// conn is the active IPC socket connection, or nil when disconnected.
	conn net.Conn
	// nonce is a monotonically increasing counter used to tag each command frame.
	nonce uint64
}

// NewClient creates a new Discord IPC client for the given application ID.
func NewClient(appID string) *Client {
	return &Client{appID: appID}
}

// Connect establishes a connection to Discord via IPC, performs the
// handshake, and starts the inbound read loop.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Close old connection if reconnecting.
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	conn, err := connectToDiscord()
	if err != nil {
		return err
	}
	c.conn = conn

	if err := c.handshake(); err != nil {
		c.conn.Close()
		c.conn = nil
		return err
	}

	go c.readLoop(conn)
	return nil
}

// SetActivity sends a SET_ACTIVITY command to Discord.
func (c *Client) SetActivity(activity *Activity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sendCommand("SET_ACTIVITY", map[string]any{
		"pid":      os.Getpid(),
		"activity": activity,
	})
}

// ClearActivity sends a SET_ACTIVITY command with a nil activity.
func (c *Client) ClearActivity() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sendCommand("SET_ACTIVITY", map[string]any{
		"pid":      os.Getpid(),
		"activity": nil,
	})
}

// Close clears the activity, sends a CLOSE frame, and closes the connection.
// All steps before the final close are best-effort.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.sendCommand("SET_ACTIVITY", map[string]any{
		"pid":      os.Getpid(),
		"activity": nil,
	})
	if frame, err := EncodeFrame(OpClose, nil); err == nil {
		_, _ = c.conn.Write(frame)
	}

	err := c.conn.Close()
	c.conn = nil
	return err
}

// Connected reports whether the client has an active connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// ///////////////////////////////////////////////
// Read Loop
// ///////////////////////////////////////////////

// readLoop consumes inbound frames on conn until the connection fails or is
// replaced. Pings are answered with pongs echoing the same payload; command
// responses are discarded. conn is captured by value so a loop left over
// from a previous connection can never tear down its successor.
func (c *Client) readLoop(conn net.Conn) {
	for {
		opcode, payload, err := DecodeFrame(conn)
		if err != nil {
			c.dropConn(conn)
			return
		}

		switch opcode {
		case OpPing:
			if pongErr := c.writeFrameFor(conn, OpPong, payload); pongErr != nil {
				c.dropConn(conn)
				return
			}
		case OpClose:
			slog.Debug("discord sent close frame")
			c.dropConn(conn)
			return
		default:
			// Command responses and dispatch events need no handling.
		}
	}
}

// dropConn closes conn and clears the client's connection if it is still the
// active one.
func (c *Client) dropConn(conn net.Conn) {
	conn.Close()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

// writeFrameFor writes a frame to conn only if it is still the active
// connection.
func (c *Client) writeFrameFor(conn net.Conn, opcode Opcode, payload []byte) error {
	frame, err := EncodeFrame(opcode, payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return ErrNotConnected
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("writing %d frame: %w", opcode, err)
	}
	return nil
}

// ///////////////////////////////////////////////
// Handshake and Commands
// ///////////////////////////////////////////////

// handshake sends the initial handshake frame to Discord and validates the
// response. A read deadline bounds the wait; any response other than a
// non-error command frame fails the handshake. The caller must hold c.mu.
func (c *Client) handshake() error {
	payload, err := json.Marshal(map[string]any{
		"v":         1,
		"client_id": c.appID,
	})
	if err != nil {
		return fmt.Errorf("marshaling handshake: %w", err)
	}

	frame, err := EncodeFrame(OpHandshake, payload)
	if err != nil {
		return fmt.Errorf("encoding handshake: %w", err)
	}
	if _, err = c.conn.Write(frame); err != nil {
		return fmt.Errorf("writing handshake: %w", err)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()

	opcode, respData, err := DecodeFrame(c.conn)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrHandshakeFailed, err)
	}
	if opcode != OpFrame {
		return fmt.Errorf("%w: unexpected response opcode %d", ErrHandshakeFailed, opcode)
	}

	var resp map[string]any
	if err := json.Unmarshal(respData, &resp); err != nil {
		return fmt.Errorf("%w: parsing response: %v", ErrHandshakeFailed, err)
	}
	if evt, _ := resp["evt"].(string); evt == "ERROR" {
		msg := "unknown error"
		if data, ok := resp["data"].(map[string]any); ok {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return fmt.Errorf("%w: rejected: %s", ErrHandshakeFailed, msg)
	}

	return nil
}

// sendCommand writes a command frame to the IPC connection. A write failure
// closes the connection so [Client.Connected] reflects the loss immediately.
// The caller must hold c.mu.
func (c *Client) sendCommand(cmd string, args map[string]any) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.nonce++
	nonce := strconv.FormatUint(c.nonce, 10)

	payload, err := json.Marshal(map[string]any{
		"cmd":   cmd,
		"args":  args,
		"nonce": nonce,
	})
	if err != nil {
		return fmt.Errorf("marshaling command: %w", err)
	}

	frame, err := EncodeFrame(OpFrame, payload)
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}
	if _, err = c.conn.Write(frame); err != nil {
		c.conn.Close()
		c.conn = nil
		return fmt.Errorf("writing command: %w", err)
	}
	return nil
}
