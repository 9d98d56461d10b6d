package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-router/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "session token (see `wirechat-router token`)")
	chatID := flag.String("chat", "", "chat id to post into; skipped when empty")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"?token="+*token, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(command string, data any) error {
		inbound := proto.Inbound{Type: command}
		if data != nil {
			raw, err := json.Marshal(data)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", command, err)
			}
			inbound.Data = raw
		}
		if err := wsjson.Write(ctx, conn, inbound); err != nil {
			return fmt.Errorf("send %s: %w", command, err)
		}
		return nil
	}

	pending := map[string]bool{
		"GetProfileResult":  true,
		"GetChatListResult": true,
	}
	if err := send("GetProfile", nil); err != nil {
		return err
	}
	if err := send("GetChatList", nil); err != nil {
		return err
	}
	if *chatID != "" {
		pending["SendMessageResult"] = true
		payload := map[string]string{"chatId": *chatID, "text": *text}
		if err := send("SendMessage", payload); err != nil {
			return err
		}
	}

	for len(pending) > 0 {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if outbound.Type == proto.OutboundTypeError && outbound.Error != nil {
			return fmt.Errorf("server error %s: %s", outbound.Error.Code, outbound.Error.Msg)
		}

		fmt.Printf("%s %s\n", outbound.Event, outbound.Data)
		delete(pending, outbound.Event)
	}

	return nil
}
