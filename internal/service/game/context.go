package game

import (
	"time"

	"go.uber.org/zap"
)

// SessionContext 持有一个会话的全部权威状态。
// 只有会话自己的事件循环协程会读写它，天然串行，不需要加锁
type SessionContext struct {
	LobbyCode string
	Phase     string

	// 名单：map 用于查找，Order 保存加入顺序，
	// 角色分配和平局裁决都依赖这个顺序
	Players map[string]*Player
	Order   []string

	Session GameSession

	Rng RandSource

	// 定时器事件汇入的通道，与客户端请求在事件循环中合流
	TmoCh chan RequestWrapper

	seq       uint64
	pulseStop chan struct{}
}

// RosterPlayers 按加入顺序返回名单
func (sc *SessionContext) RosterPlayers() []*Player {
	players := make([]*Player, 0, len(sc.Order))
	for _, id := range sc.Order {
		if p, ok := sc.Players[id]; ok {
			players = append(players, p)
		}
	}

	return players
}

// PublicPlayers 返回名单的值拷贝，用于对外广播
func (sc *SessionContext) PublicPlayers() []Player {
	players := make([]Player, 0, len(sc.Order))
	for _, id := range sc.Order {
		if p, ok := sc.Players[id]; ok {
			players = append(players, *p)
		}
	}

	return players
}

func (sc *SessionContext) GetAuthority() *Player {
	for _, id := range sc.Order {
		if p, ok := sc.Players[id]; ok && p.IsAuthority {
			return p
		}
	}

	return nil
}

// NextSeq 返回单调递增的广播序号
func (sc *SessionContext) NextSeq() uint64 {
	sc.seq++
	return sc.seq
}

func (sc *SessionContext) BroadcastResp(resp ResponseWrapper) {
	resp.Seq = sc.NextSeq()

	for _, p := range sc.RosterPlayers() {
		if p.RespCh == nil {
			continue
		}

		select {
		case p.RespCh <- resp:
			zap.L().Debug(
				"成功发送广播响应",
				zap.String("player_id", p.ID),
				zap.String("response_type", resp.RespType),
			)
		default:
			zap.L().Warn(
				"发送广播响应失败：玩家响应通道已满",
				zap.String("player_id", p.ID),
			)
		}
	}
}

func (sc *SessionContext) UnicastResp(playerID string, resp ResponseWrapper) {
	player, ok := sc.Players[playerID]
	if !ok || player.RespCh == nil {
		zap.L().Warn(
			"无法找到玩家进行单播响应",
			zap.String("player_id", playerID),
		)
		return
	}

	resp.Seq = sc.NextSeq()

	select {
	case player.RespCh <- resp:
		zap.L().Debug(
			"发送单播响应成功",
			zap.String("player_id", playerID),
			zap.String("response_type", resp.RespType),
		)
	default:
		zap.L().Warn(
			"发送单播响应失败：玩家响应通道已满",
			zap.String("player_id", playerID),
		)
	}
}

// ReplyTo 向一个尚未进入名单的响应通道发送消息（如加入被拒）
func (sc *SessionContext) ReplyTo(respCh chan ResponseWrapper, resp ResponseWrapper) {
	if respCh == nil {
		return
	}

	resp.Seq = sc.NextSeq()

	select {
	case respCh <- resp:
	default:
		zap.L().Warn("发送响应失败：响应通道已满")
	}
}

// StartPulse 启动固定节奏的定时事件，把 TickRequest 注入事件循环。
// 大厅阶段用作状态重发心跳，对局阶段驱动模拟 tick
func (sc *SessionContext) StartPulse(interval time.Duration, phase string) {
	sc.StopPulse()

	stop := make(chan struct{})
	sc.pulseStop = stop

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return

			case <-ticker.C:
				req := RequestWrapper{
					ReqType:    REQ_TICK,
					NativeData: &TickRequest{Phase: phase},
				}

				select {
				case sc.TmoCh <- req:
				default:
					// tick 计算期间的脉冲直接丢弃，下一个周期会补上
				}
			}
		}
	}()
}

func (sc *SessionContext) StopPulse() {
	if sc.pulseStop != nil {
		close(sc.pulseStop)
		sc.pulseStop = nil
	}
}
