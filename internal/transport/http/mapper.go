package http

import (
	"github.com/vovakirdan/wirechat-router/internal/core"
	"github.com/vovakirdan/wirechat-router/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (core.Command, *proto.Error) {
	if inbound.Type == "" {
		return core.Command{}, &proto.Error{Code: proto.ErrCodeInvalidMessage, Msg: "type is required"}
	}

	kind, ok := core.ParseCommandKind(inbound.Type)
	if !ok {
		return core.Command{}, &proto.Error{Code: proto.ErrCodeUnknownCommand, Msg: "unknown command " + inbound.Type}
	}

	return core.Command{Kind: kind, Payload: inbound.Data}, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: string(event.Name),
		Data:  event.Payload,
	}
}

func outboundError(code, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	}
}
