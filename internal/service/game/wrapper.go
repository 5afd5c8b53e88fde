package game

import (
	"encoding/json"

	"go.uber.org/zap"
)

// 请求类型
const (
	REQ_JOIN_GAME     = "JoinGame"
	REQ_START_GAME    = "StartGame"
	REQ_SUBMIT_ACTION = "SubmitAction"
	REQ_ADD_BOT       = "AddBot"
	REQ_EXIT_GAME     = "ExitGame"
	// Tick 是权威内部的定时事件，不来自客户端
	REQ_TICK = "Tick"
)

type RequestWrapper struct {
	ReqType string          `json:"request_type"`
	Data    json.RawMessage `json:"data"`

	// 进程内请求直接携带负载，跳过序列化（通道不可编码的字段得以保留）
	NativeData any `json:"-"`
}

func TryUnwrapJoinGameRequest(wrapper RequestWrapper) *JoinGameRequest {
	if wrapper.ReqType != REQ_JOIN_GAME {
		return nil
	}

	if native, ok := wrapper.NativeData.(*JoinGameRequest); ok {
		return native
	}

	var joinGameRequest JoinGameRequest

	err := json.Unmarshal(wrapper.Data, &joinGameRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap JoinGameRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &joinGameRequest
}

func TryUnwrapStartGameRequest(wrapper RequestWrapper) *StartGameRequest {
	if wrapper.ReqType != REQ_START_GAME {
		return nil
	}

	if native, ok := wrapper.NativeData.(*StartGameRequest); ok {
		return native
	}

	var startGameRequest StartGameRequest

	err := json.Unmarshal(wrapper.Data, &startGameRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap StartGameRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &startGameRequest
}

func TryUnwrapSubmitActionRequest(wrapper RequestWrapper) *SubmitActionRequest {
	if wrapper.ReqType != REQ_SUBMIT_ACTION {
		return nil
	}

	if native, ok := wrapper.NativeData.(*SubmitActionRequest); ok {
		return native
	}

	var submitActionRequest SubmitActionRequest

	err := json.Unmarshal(wrapper.Data, &submitActionRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap SubmitActionRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &submitActionRequest
}

func TryUnwrapAddBotRequest(wrapper RequestWrapper) *AddBotRequest {
	if wrapper.ReqType != REQ_ADD_BOT {
		return nil
	}

	if native, ok := wrapper.NativeData.(*AddBotRequest); ok {
		return native
	}

	var addBotRequest AddBotRequest

	err := json.Unmarshal(wrapper.Data, &addBotRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap AddBotRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &addBotRequest
}

func TryUnwrapExitGameRequest(wrapper RequestWrapper) *ExitGameRequest {
	if wrapper.ReqType != REQ_EXIT_GAME {
		return nil
	}

	if native, ok := wrapper.NativeData.(*ExitGameRequest); ok {
		return native
	}

	var exitGameRequest ExitGameRequest

	err := json.Unmarshal(wrapper.Data, &exitGameRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap ExitGameRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &exitGameRequest
}

func TryUnwrapTickRequest(wrapper RequestWrapper) *TickRequest {
	if wrapper.ReqType != REQ_TICK {
		return nil
	}

	if native, ok := wrapper.NativeData.(*TickRequest); ok {
		return native
	}

	var tickRequest TickRequest

	err := json.Unmarshal(wrapper.Data, &tickRequest)
	if err != nil {
		zap.L().Error(
			"Failed to unwrap TickRequest",
			zap.Error(err),
			zap.Any("wrapper", wrapper),
		)
		return nil
	}

	return &tickRequest
}

// 响应类型
const (
	RESP_ERROR = "Error"

	RESP_JOIN_GAME   = "JoinGame"
	RESP_LOBBY_STATE = "LobbyState"
	RESP_START_GAME  = "StartGame"
	RESP_GAME_TICK   = "GameTick"
	RESP_EXIT_GAME   = "ExitGame"
)

// ResponseWrapper 携带单调递增的 Seq，
// 参与者据此丢弃乱序到达的过期广播
type ResponseWrapper struct {
	RespType string `json:"response_type"`
	Seq      uint64 `json:"seq,omitempty"`
	Data     any    `json:"data"`
	ErrMsg   string `json:"error_message,omitempty"`
}

func WrapResponse(respType string, data any) ResponseWrapper {
	return ResponseWrapper{
		RespType: respType,
		Data:     data,
	}
}

func WrapErrResponse(errMsg string) ResponseWrapper {
	return ResponseWrapper{
		RespType: RESP_ERROR,
		ErrMsg:   errMsg,
	}
}
