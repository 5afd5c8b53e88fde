package transport

import (
	"errors"
	"sync"

	"gridfall-be/internal/service/game"

	"go.uber.org/zap"
)

// 进程内的会合注册表：权威按会话代号绑定，
// 参与者按同一代号拨号。协议层只依赖这里的投递原语，
// 不关心底层是进程内通道还是 WebSocket
var (
	ErrCodeTaken   = errors.New("会话代号已被占用")
	ErrUnreachable = errors.New("找不到对应的会话")
	ErrClosed      = errors.New("连接已关闭")
)

type Registry struct {
	mu          sync.RWMutex
	authorities map[string]chan game.RequestWrapper
}

func NewRegistry() *Registry {
	return &Registry{
		authorities: make(map[string]chan game.RequestWrapper),
	}
}

// Bind 将权威的请求通道绑定到一个会话代号；
// 代号冲突按会合冲突处理
func (r *Registry) Bind(lobbyCode string, reqCh chan game.RequestWrapper) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.authorities[lobbyCode]; exists {
		return ErrCodeTaken
	}

	r.authorities[lobbyCode] = reqCh

	return nil
}

func (r *Registry) Unbind(lobbyCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.authorities, lobbyCode)
}

// Dial 按会话代号建立到权威的连接；
// 代号不存在时返回不可达错误
func (r *Registry) Dial(lobbyCode string) (*Conn, error) {
	r.mu.RLock()
	reqCh, exists := r.authorities[lobbyCode]
	r.mu.RUnlock()

	if !exists {
		return nil, ErrUnreachable
	}

	return &Conn{
		lobbyCode: lobbyCode,
		reqCh:     reqCh,
		respCh:    make(chan game.ResponseWrapper, 64),
	}, nil
}

// Conn 是参与者到权威的点对点连接。
// Send 是 fire-and-forget：通道不可用时静默丢弃，
// 协议层靠重发和全量广播收敛
type Conn struct {
	lobbyCode string
	reqCh     chan game.RequestWrapper
	respCh    chan game.ResponseWrapper

	mu     sync.Mutex
	closed bool
}

func (c *Conn) Send(req game.RequestWrapper) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}

	select {
	case c.reqCh <- req:
		return nil
	default:
		zap.L().Warn(
			"发送请求失败：权威请求通道已满",
			zap.String("lobby_code", c.lobbyCode),
			zap.String("request_type", req.ReqType),
		)
		return nil
	}
}

// Receive 返回入站广播通道；权威断开参与者时会关闭它
func (c *Conn) Receive() <-chan game.ResponseWrapper {
	return c.respCh
}

// RespCh 返回可写端，加入握手时交给权威
func (c *Conn) RespCh() chan game.ResponseWrapper {
	return c.respCh
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
}
