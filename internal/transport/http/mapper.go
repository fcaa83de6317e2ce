package http

import (
	"encoding/json"

	"github.com/okravchenko/tidechat-server/internal/core"
	"github.com/okravchenko/tidechat-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundJoinConversation, proto.InboundLeaveConversation:
		var data proto.ConversationData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ConversationID <= 0 {
			return nil, badRequest("conversationId is required"), nil
		}
		kind := core.CommandJoinConversation
		if inbound.Type == proto.InboundLeaveConversation {
			kind = core.CommandLeaveConversation
		}
		return &core.Command{Kind: kind, ConversationID: data.ConversationID}, nil, nil

	case proto.InboundMessageSend:
		var data proto.MessageSendData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ConversationID <= 0 {
			return nil, badRequest("conversationId is required"), nil
		}
		if data.Text == "" {
			return nil, badRequest("text is required"), nil
		}
		return &core.Command{
			Kind:           core.CommandSendMessage,
			ConversationID: data.ConversationID,
			Text:           data.Text,
		}, nil, nil

	case proto.InboundMessageRead:
		var data proto.MessageReadData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.MessageID <= 0 {
			return nil, badRequest("messageId is required"), nil
		}
		return &core.Command{Kind: core.CommandMarkRead, MessageID: data.MessageID}, nil, nil

	case proto.InboundTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ConversationID <= 0 {
			return nil, badRequest("conversationId is required"), nil
		}
		return &core.Command{
			Kind:           core.CommandTyping,
			ConversationID: data.ConversationID,
			IsTyping:       data.IsTyping,
		}, nil, nil

	case proto.InboundJoinPost, proto.InboundLeavePost:
		var data proto.PostData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.PostID == "" {
			return nil, badRequest("postId is required"), nil
		}
		kind := core.CommandJoinPost
		if inbound.Type == proto.InboundLeavePost {
			kind = core.CommandLeavePost
		}
		return &core.Command{Kind: kind, PostID: data.PostID}, nil, nil

	case proto.InboundJoinProduct, proto.InboundLeaveProduct:
		var data proto.ProductData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.ProductID == "" {
			return nil, badRequest("productId is required"), nil
		}
		kind := core.CommandJoinProduct
		if inbound.Type == proto.InboundLeaveProduct {
			kind = core.CommandLeaveProduct
		}
		return &core.Command{Kind: kind, ProductID: data.ProductID}, nil, nil

	case proto.InboundJoinMarketplace:
		return &core.Command{Kind: core.CommandJoinMarketplace}, nil, nil
	case proto.InboundLeaveMarketplace:
		return &core.Command{Kind: core.CommandLeaveMarketplace}, nil, nil
	case proto.InboundJoinAdmin:
		return &core.Command{Kind: core.CommandJoinAdmin}, nil, nil

	case proto.InboundLiveEvent:
		var data proto.LiveEventData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.PostID == "" {
			return nil, badRequest("postId is required"), nil
		}
		switch data.Kind {
		case "like", "gift", "poll", "goal":
		default:
			return nil, badRequest("unknown live event kind"), nil
		}
		return &core.Command{
			Kind:     core.CommandLiveEvent,
			PostID:   data.PostID,
			LiveKind: data.Kind,
			LiveData: data.Data,
		}, nil, nil

	case proto.InboundCallOffer, proto.InboundCallAnswer, proto.InboundCallICECandidate:
		var data proto.CallSignalData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, nil, err
		}
		if data.CallID == "" {
			return nil, badRequest("callId is required"), nil
		}
		if data.TargetUserID <= 0 {
			return nil, badRequest("targetUserId is required"), nil
		}
		signal := core.CallOffer
		switch inbound.Type {
		case proto.InboundCallAnswer:
			signal = core.CallAnswer
		case proto.InboundCallICECandidate:
			signal = core.CallICECandidate
		}
		return &core.Command{
			Kind:         core.CommandCallSignal,
			Signal:       signal,
			CallID:       data.CallID,
			TargetUserID: data.TargetUserID,
			Payload:      data.Payload,
		}, nil, nil

	case proto.InboundPing:
		return &core.Command{Kind: core.CommandPing}, nil, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventHello:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "hello",
			Data: proto.EventHello{
				ConnectionID: event.Hello.ConnectionID,
				UserID:       event.Hello.UserID,
				DisplayName:  event.Hello.DisplayName,
				Anonymous:    event.Hello.Anonymous,
			},
		}
	case core.EventMessageNew:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message:new",
			Data: proto.EventMessage{
				ID:             event.Message.ID,
				ConversationID: event.Message.ConversationID,
				SenderID:       event.Message.SenderID,
				SenderName:     event.Message.SenderName,
				Text:           event.Message.Body,
				TS:             event.Message.CreatedAt.Unix(),
			},
		}
	case core.EventMessageRead:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "message:read",
			Data: proto.EventMessageRead{
				MessageID:      event.Read.MessageID,
				ConversationID: event.Read.ConversationID,
				ReaderID:       event.Read.ReaderID,
			},
		}
	case core.EventTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "typing",
			Data: proto.EventTyping{
				ConversationID: event.Typing.ConversationID,
				UserID:         event.Typing.UserID,
				DisplayName:    event.Typing.DisplayName,
				IsTyping:       event.Typing.IsTyping,
			},
		}
	case core.EventUserStatus:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "user:status",
			Data: proto.EventUserStatus{
				UserID:      event.Status.UserID,
				DisplayName: event.Status.DisplayName,
				IsOnline:    event.Status.IsOnline,
				LastSeenAt:  event.Status.LastSeenAt.Unix(),
			},
		}
	case core.EventLive:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "live:event",
			Data: proto.EventLive{
				PostID:      event.Live.PostID,
				Kind:        event.Live.Kind,
				FromUserID:  event.Live.FromUserID,
				DisplayName: event.Live.DisplayName,
				Data:        event.Live.Data,
			},
		}
	case core.EventCallSignal:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "call:" + string(event.Call.Signal),
			Data: proto.EventCallSignal{
				CallID:     event.Call.CallID,
				FromUserID: event.Call.FromUserID,
				FromName:   event.Call.FromName,
				Payload:    event.Call.Payload,
			},
		}
	case core.EventNotification:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: "notification:new",
			Data: proto.EventNotification{
				Kind:    event.Notified.Kind,
				Payload: event.Notified.Payload,
			},
		}
	case core.EventPong:
		return proto.Outbound{Type: proto.OutboundTypeEvent, Event: "pong"}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
