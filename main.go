package main

import (
	"gridfall-be/internal/api/http"
	"gridfall-be/internal/config"
	"gridfall-be/internal/logger"
	"gridfall-be/internal/service"
	"gridfall-be/internal/state"
)

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel)

	// 组装应用状态
	appState := state.NewAppState(
		cfg,
		service.NewSessionService(),
	)

	// 启动服务器
	http.RunServer(appState)
}
