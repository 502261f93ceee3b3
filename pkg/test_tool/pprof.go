package testtool

import (
	"net/http"
	_ "net/http/pprof" // 匯入後會自動註冊 pprof endpoint

	"chat_delivery_service/pkg/config"
	"chat_delivery_service/pkg/logger"

	"go.uber.org/zap"
)

// defaultPprofAddr 只聽本機
const defaultPprofAddr = "127.0.0.1:6060"

// StartPprof enabled 來自 yaml 的 pprof 設定, production 一律關閉
func StartPprof(enabled bool) {
	if !enabled || config.IsProduction() {
		logger.Log.Info("pprof is disabled")
		return
	}

	go func() {
		logger.Log.Info("Starting pprof server", zap.String("addr", defaultPprofAddr))
		if err := http.ListenAndServe(defaultPprofAddr, nil); err != nil {
			logger.Log.Error("pprof server failed", zap.Error(err))
		}
	}()
}

// curl http://localhost:6060/debug/pprof/
// go tool pprof http://localhost:6060/debug/pprof/profile?seconds=30
// go tool pprof http://localhost:6060/debug/pprof/heap
