// Package net bridges the execution core to a WebSocket client, grounded
// on the teacher's internal/network/websocket.go (WebSocketConnect/Send/
// Receive/Close, keyed by a generated connection ID). This package keeps
// only the client half: the teacher's WebSocketListen/WebSocketServer
// pair stands up an HTTP server and has no natural caller from inside a
// single-threaded bytecode dispatch loop, so it is left out rather than
// given a native function nobody in SPEC_FULL.md would call.
package net

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lucore/internal/value"
)

// conn mirrors the teacher's WebSocketConn: a read goroutine drains
// incoming frames into a buffered channel so ws_recv can block with a
// timeout instead of calling ReadMessage directly from native-function
// code (which would stall the whole VM on a frame that never arrives).
type conn struct {
	ws       *websocket.Conn
	mu       sync.Mutex
	closed   bool
	messages chan []byte
}

func (c *conn) readLoop() {
	defer close(c.messages)
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			return
		}
		select {
		case c.messages <- msg:
		default:
			<-c.messages
			c.messages <- msg
		}
	}
}

type registry struct {
	mu    sync.Mutex
	conns map[string]*conn
	next  int
}

var global = &registry{conns: make(map[string]*conn)}

func (r *registry) add(c *conn) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := fmt.Sprintf("ws#%d", r.next)
	r.conns[id] = c
	return id
}

func (r *registry) get(id string) (*conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Register installs ws_dial/ws_send/ws_recv/ws_close as globals on h.
func Register(h interface{ SetGlobal(string, value.Value) }) {
	h.SetGlobal("ws_dial", value.NativeVal(&value.NativeFunc{Name: "ws_dial", Fn: wsDial}))
	h.SetGlobal("ws_send", value.NativeVal(&value.NativeFunc{Name: "ws_send", Fn: wsSend}))
	h.SetGlobal("ws_recv", value.NativeVal(&value.NativeFunc{Name: "ws_recv", Fn: wsRecv}))
	h.SetGlobal("ws_close", value.NativeVal(&value.NativeFunc{Name: "ws_close", Fn: wsClose}))
}

// ws_dial(url) -> handle string.
func wsDial(host value.Host) (int, error) {
	url := host.GetValue(1).AsString()

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	ws, _, err := dialer.Dial(url, nil)
	if err != nil {
		return 0, fmt.Errorf("ws_dial: %w", err)
	}

	c := &conn{ws: ws, messages: make(chan []byte, 100)}
	go c.readLoop()

	host.Push(value.Str(global.add(c)))
	return 1, nil
}

// ws_send(handle, message) -> nothing; raises if the connection is
// unknown or already closed.
func wsSend(host value.Host) (int, error) {
	id := host.GetValue(1).AsString()
	msg := host.GetValue(2).AsString()

	c, ok := global.get(id)
	if !ok {
		return 0, fmt.Errorf("ws_send: unknown handle %q", id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, fmt.Errorf("ws_send: connection %q is closed", id)
	}
	return 0, c.ws.WriteMessage(websocket.TextMessage, []byte(msg))
}

// ws_recv(handle, timeoutSeconds) -> message string, or nil on timeout.
func wsRecv(host value.Host) (int, error) {
	id := host.GetValue(1).AsString()
	timeoutSec := host.GetValue(2)

	c, ok := global.get(id)
	if !ok {
		return 0, fmt.Errorf("ws_recv: unknown handle %q", id)
	}

	var timeout time.Duration
	switch timeoutSec.Kind() {
	case value.KInt:
		timeout = time.Duration(timeoutSec.AsInt()) * time.Second
	case value.KFloat:
		timeout = time.Duration(timeoutSec.AsFloat() * float64(time.Second))
	default:
		timeout = 5 * time.Second
	}

	select {
	case msg, ok := <-c.messages:
		if !ok {
			host.Push(value.Nil())
			return 1, nil
		}
		host.Push(value.Str(string(msg)))
		return 1, nil
	case <-time.After(timeout):
		host.Push(value.Nil())
		return 1, nil
	}
}

// ws_close(handle) closes the connection and forgets it.
func wsClose(host value.Host) (int, error) {
	id := host.GetValue(1).AsString()
	c, ok := global.get(id)
	if !ok {
		return 0, nil
	}
	global.remove(id)

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return 0, c.ws.Close()
}
