// Package ipc is the local control channel between ottovoice and
// ottovoice-ctl: one JSON message per unix-socket connection.
package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// Commands understood by the assistant.
const (
	CmdListen = "listen" // start gesture
	CmdRun    = "run"    // typed transcript in Text
)

// ControlMessage is one request from the control client.
type ControlMessage struct {
	Cmd  string `json:"cmd"`
	Text string `json:"text,omitempty"`
}

// Reply acknowledges a ControlMessage.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Handler processes one control message.
type Handler func(ControlMessage) error

// StartServer listens on the unix socket at path and hands every
// message to handler. A stale socket file is removed first. The server
// stops and removes the socket when ctx is cancelled.
func StartServer(ctx context.Context, path string, handler Handler) error {
	_ = os.Remove(path)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
		_ = os.Remove(path)
	}()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler Handler) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		_ = json.NewEncoder(conn).Encode(Reply{Error: "bad request: " + err.Error()})
		return
	}

	reply := Reply{OK: true}
	if err := handler(msg); err != nil {
		reply = Reply{Error: err.Error()}
	}
	_ = json.NewEncoder(conn).Encode(reply)
}

// SendCommand delivers msg to the server at path and waits for its reply.
func SendCommand(path string, msg ControlMessage) error {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if !reply.OK {
		return errors.New(reply.Error)
	}
	return nil
}
