package transport

import (
	"testing"

	"gridfall-be/internal/service/game"
)

func TestRegistry_BindDialUnbind(t *testing.T) {
	registry := NewRegistry()
	reqCh := make(chan game.RequestWrapper, 4)

	if err := registry.Bind("lobby001", reqCh); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	if err := registry.Bind("lobby001", make(chan game.RequestWrapper)); err != ErrCodeTaken {
		t.Fatalf("want ErrCodeTaken got %v", err)
	}

	conn, err := registry.Dial("lobby001")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	if err := conn.Send(game.RequestWrapper{ReqType: game.REQ_START_GAME}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	select {
	case req := <-reqCh:
		if req.ReqType != game.REQ_START_GAME {
			t.Fatalf("request type want StartGame got %s", req.ReqType)
		}
	default:
		t.Fatal("request not delivered to the authority channel")
	}

	registry.Unbind("lobby001")

	if _, err := registry.Dial("lobby001"); err != ErrUnreachable {
		t.Fatalf("want ErrUnreachable got %v", err)
	}
}

func TestConn_SendAfterClose(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Bind("lobby002", make(chan game.RequestWrapper, 4)); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	conn, err := registry.Dial("lobby002")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	conn.Close()

	if err := conn.Send(game.RequestWrapper{ReqType: game.REQ_EXIT_GAME}); err != ErrClosed {
		t.Fatalf("want ErrClosed got %v", err)
	}
}

func TestConn_FullChannelDropsSilently(t *testing.T) {
	registry := NewRegistry()

	// 容量 1 的权威通道，第二次发送应被丢弃而不是阻塞
	reqCh := make(chan game.RequestWrapper, 1)
	if err := registry.Bind("lobby003", reqCh); err != nil {
		t.Fatalf("bind failed: %v", err)
	}

	conn, err := registry.Dial("lobby003")
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	if err := conn.Send(game.RequestWrapper{ReqType: game.REQ_TICK}); err != nil {
		t.Fatalf("first send failed: %v", err)
	}

	if err := conn.Send(game.RequestWrapper{ReqType: game.REQ_TICK}); err != nil {
		t.Fatalf("second send should drop silently, got %v", err)
	}

	if len(reqCh) != 1 {
		t.Fatalf("channel depth want 1 got %d", len(reqCh))
	}
}
