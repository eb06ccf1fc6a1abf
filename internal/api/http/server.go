// Package http 模拟引擎的REST封装
//
// 🎯 **核心职责**：把引擎的 call(kind, payload, account) 入口
// 暴露为HTTP端点。负载走路径参数的base64编码，响应统一为
// {"data": ...} 或 {"error": ...}，与交互式REPL共享同一引擎
package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/weisyn/wasmsim/internal/api/http/middleware"
	apicfg "github.com/weisyn/wasmsim/internal/config/api"
	"github.com/weisyn/wasmsim/internal/core/engine"
)

// ContractCaller 服务器对模拟引擎的依赖面
type ContractCaller interface {
	Call(ctx context.Context, kind engine.CallKind, addr string, payload []byte, account string) (engine.CallOutcome, error)
	Addresses() []string
}

// Server REST服务器
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *apicfg.Config
	caller     ContractCaller
	logger     *zap.SugaredLogger
}

// NewServer 创建REST服务器并装配路由
func NewServer(config *apicfg.Config, caller ContractCaller, logger *zap.SugaredLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.CORS())

	s := &Server{
		router: router,
		config: config,
		caller: caller,
		logger: logger,
	}
	s.setupRoutes()
	return s
}

// Router 路由引擎（测试用）
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/contracts", s.listContracts)

	contract := s.router.Group("/contract/:address")
	contract.GET("/instantiate/:msg", s.handleCall(engine.KindInstantiate))
	contract.GET("/execute/:msg", s.handleCall(engine.KindExecute))
	// 查询不认证调用方，account参数被忽略
	contract.GET("/query/:msg", s.handleCall(engine.KindQuery))
}

// listContracts 已装载合约地址列表
func (s *Server) listContracts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.caller.Addresses()})
}

// handleCall 生命周期调用端点
//
// 负载取:msg路径参数的base64解码。调用结果不论成败都返回
// HTTP 200，成败体现在"data"/"error"字段上
func (s *Server) handleCall(kind engine.CallKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := base64.StdEncoding.DecodeString(c.Param("msg"))
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"error": "invalid base64 payload: " + err.Error()})
			return
		}

		addr := c.Param("address")
		outcome, err := s.caller.Call(c.Request.Context(), kind, addr, payload, c.Query("account"))
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
			return
		}

		// 调用结果本身是JSON串时原样内嵌，否则按字符串包装
		if json.Valid([]byte(outcome.Data)) {
			c.JSON(http.StatusOK, gin.H{"data": json.RawMessage(outcome.Data)})
		} else {
			c.JSON(http.StatusOK, gin.H{"data": outcome.Data})
		}
	}
}

// Start 启动HTTP监听
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.config.ListenAddr(),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.Infow("REST服务已启动", "addr", s.httpServer.Addr)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorw("REST服务运行失败", "error", err)
			}
		}
	}()
	return nil
}

// Stop 优雅关闭，等待活跃连接完成
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(stopCtx)
}
