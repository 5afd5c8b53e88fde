package websocket

import (
	"encoding/json"
	"time"

	"gridfall-be/internal/service/game"
	"gridfall-be/internal/state"

	"github.com/gorilla/websocket"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

// JoinSession 把一条 WebSocket 连接接入会话状态机：
// 首帧必须是 JoinGame（携带会话代号），之后读写协程
// 分别把客户端请求注入状态机、把广播推回客户端
func JoinSession(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		conn, err := upgrader.Upgrade(
			ctx.ResponseWriter(),
			ctx.Request(),
			nil,
		)
		if err != nil {
			zap.L().Error("升级到WebSocket失败", zap.Error(err))
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		defer conn.Close()

		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		conn.SetPongHandler(heartbeatHandler(conn))

		clientIP := ctx.RemoteAddr()

		// 缓冲响应通道：加入确认先在这里读出再回放给写协程
		respCh := make(chan game.ResponseWrapper, 64)

		// 读取首帧，必须是 JoinGame 请求
		_, msg, err := conn.ReadMessage()
		if err != nil {
			zap.L().Error(
				"读取首帧失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			return
		}

		var wrapper game.RequestWrapper

		if err := json.Unmarshal(msg, &wrapper); err != nil {
			zap.L().Error(
				"解析首帧失败",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)

			return
		}

		joinReq := game.TryUnwrapJoinGameRequest(wrapper)
		if joinReq == nil {
			zap.L().Error(
				"首帧不是JoinGame类型",
				zap.String("client_ip", clientIP),
			)

			return
		}

		// 查找会话并拿到权威的请求通道
		reqCh, err := appState.SessionSvc.AttachSession(joinReq.LobbyCode)
		if err != nil {
			zap.L().Warn(
				"查找会话失败",
				zap.String("client_ip", clientIP),
				zap.String("lobby_code", joinReq.LobbyCode),
				zap.Error(err),
			)

			conn.WriteJSON(game.WrapErrResponse(err.Error()))
			return
		}

		// 注入携带响应通道的加入请求
		joinReq.RespCh = respCh

		joinWrapper := game.RequestWrapper{
			ReqType:    game.REQ_JOIN_GAME,
			NativeData: joinReq,
		}

		reqTimer := time.NewTimer(5 * time.Second)

		select {
		case reqCh <- joinWrapper:
			if !reqTimer.Stop() {
				select {
				case <-reqTimer.C:
				default:
				}
			}

		case <-reqTimer.C:
			zap.L().Warn(
				"会话无法及时处理加入请求",
				zap.String("client_ip", clientIP),
				zap.String("lobby_code", joinReq.LobbyCode),
			)

			conn.WriteJSON(game.WrapErrResponse("加入会话失败"))
			return
		}

		// 等待加入确认，获取玩家 ID
		var playerID string
		var playerName string

		select {
		case joinResp := <-respCh:
			if joinResp.RespType == game.RESP_ERROR {
				// 加入被策略拒绝（满员 / 对局已开始）
				conn.WriteJSON(joinResp)

				zap.L().Info(
					"加入会话被拒绝",
					zap.String("client_ip", clientIP),
					zap.String("reason", joinResp.ErrMsg),
				)

				return
			}

			if joinResp.RespType == game.RESP_JOIN_GAME {
				if respData, ok := joinResp.Data.(game.JoinGameResponse); ok {
					playerID = respData.Joiner.ID
					playerName = respData.Joiner.Name
				}

				// 将确认放回通道供写协程发送
				select {
				case respCh <- joinResp:
				default:
					zap.L().Warn("无法回放加入确认")
				}
			}
		case <-time.After(3 * time.Second):
			zap.L().Error("等待加入确认超时", zap.String("client_ip", clientIP))
			return
		}

		if playerID == "" {
			zap.L().Error("未能获取玩家ID", zap.String("client_ip", clientIP))
			return
		}

		zap.L().Info(
			"玩家成功加入会话",
			zap.String("client_ip", clientIP),
			zap.String("lobby_code", joinReq.LobbyCode),
			zap.String("player_id", playerID),
			zap.String("player_name", playerName),
		)

		// 写协程的退出信号
		writeDoneCh := make(chan struct{})
		defer close(writeDoneCh)

		// 写入协程
		go func() {
			ticker := time.NewTicker(HEARTBEAT_INTERVAL)
			defer ticker.Stop()

			for {
				select {
				case <-writeDoneCh:
					zap.L().Debug(
						"WebSocket写入协程退出",
						zap.String("client_ip", clientIP),
					)
					return

				case <-ticker.C:
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						zap.L().Error(
							"发送心跳失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}

					conn.SetWriteDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))

				case resp, ok := <-respCh:
					// 通道已关闭：状态机处理完退出后会关闭它
					if !ok {
						zap.L().Info(
							"响应通道已关闭，退出写协程",
							zap.String("client_ip", clientIP),
						)
						return
					}

					if err := conn.WriteJSON(resp); err != nil {
						zap.L().Error(
							"发送消息失败",
							zap.String("client_ip", clientIP),
							zap.Error(err),
						)
						return
					}
				}
			}
		}()

		// 读取协程（主协程）
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(
					err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					zap.L().Error(
						"读取消息失败",
						zap.String("client_ip", clientIP),
						zap.Error(err),
					)
				}

				break
			}

			// 解析消息
			var wrapper game.RequestWrapper

			if err := json.Unmarshal(msg, &wrapper); err != nil {
				zap.L().Error(
					"解析消息失败",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)

				// 解析失败，返回错误响应
				respCh <- game.WrapErrResponse("无效的请求格式")

				continue
			}

			// 将解析后的请求发送到会话状态机
			select {
			case reqCh <- wrapper:
				zap.L().Debug(
					"发送请求到会话状态机",
					zap.String("client_ip", clientIP),
					zap.String("request_type", wrapper.ReqType),
				)
			default:
				zap.L().Error(
					"发送请求到会话状态机失败：请求通道已满",
					zap.String("client_ip", clientIP),
				)

				// 返回错误响应
				respCh <- game.WrapErrResponse("会话繁忙，请稍后再试")
			}
		}

		// 读循环退出，表示客户端断开连接
		// 发送 ExitGame 请求通知状态机清理连接
		zap.L().Info(
			"客户端连接断开，发送退出请求",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)

		exitReq := game.ExitGameRequest{
			PlayerID: playerID,
			RespCh:   respCh,
		}

		exitWrapper := game.RequestWrapper{
			ReqType:    game.REQ_EXIT_GAME,
			NativeData: &exitReq,
		}

		// 发送退出请求
		select {
		case reqCh <- exitWrapper:
			zap.L().Debug(
				"发送退出请求成功",
				zap.String("player_id", playerID),
			)
		default:
			zap.L().Warn(
				"发送退出请求失败：请求通道已满",
				zap.String("player_id", playerID),
			)
			// 即使发送失败也继续等待，确保资源回收
		}

		// 等待退出确认响应或超时
		select {
		case resp, ok := <-respCh:
			if !ok {
				zap.L().Info(
					"响应通道已关闭，玩家退出完成",
					zap.String("player_id", playerID),
				)
			} else if resp.RespType == game.RESP_EXIT_GAME {
				zap.L().Info(
					"收到退出确认响应",
					zap.String("player_id", playerID),
				)
			} else {
				zap.L().Debug(
					"收到非退出响应，继续等待",
					zap.String("player_id", playerID),
					zap.String("resp_type", resp.RespType),
				)
			}
		case <-time.After(3 * time.Second):
			zap.L().Warn(
				"等待退出确认超时，强制退出",
				zap.String("player_id", playerID),
			)
		}

		zap.L().Info(
			"WebSocket连接处理完成",
			zap.String("client_ip", clientIP),
			zap.String("player_id", playerID),
		)
	}
}
