package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forest33/rawlink/business/entity"
	"github.com/forest33/rawlink/pkg/logger"
	"github.com/forest33/rawlink/pkg/structs"
)

type Server struct {
	cfg             *Config
	log             *logger.Logger
	listenerUseCase ListenerUseCase
	interfaces      InterfaceLister
	metrics         http.Handler
	router          *gin.Engine
	srv             *http.Server
}

type Config struct {
	Host string
	Port int
}

type ListenerUseCase interface {
	GetStatistic() *entity.Statistic
	Send(frame []byte) error
}

type InterfaceLister func() ([]*entity.Interface, error)

type interfaceInfo struct {
	Index        int    `json:"index"`
	Name         string `json:"name"`
	MTU          int    `json:"mtu"`
	HardwareAddr string `json:"hardware_addr,omitempty"`
	Flags        string `json:"flags"`
	OperState    string `json:"oper_state,omitempty"`
	Up           bool   `json:"up"`
}

type sendRequest struct {
	Frame string `json:"frame" binding:"required"`
}

type sendResponse struct {
	Size int `json:"size"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New creates the REST server. metrics may be nil.
func New(cfg *Config, log *logger.Logger, listenerUseCase ListenerUseCase, interfaces InterfaceLister, metrics http.Handler) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:             cfg,
		log:             log.Duplicate(log.With().Str("layer", "rest").Logger()),
		listenerUseCase: listenerUseCase,
		interfaces:      interfaces,
		metrics:         metrics,
		router:          gin.New(),
	}
	s.init()

	return s
}

func (s *Server) init() {
	s.router.Use(gin.Recovery(), s.accessLog)
	s.router.GET("/api/v1/state", s.handlerState)
	s.router.GET("/api/v1/interfaces", s.handlerInterfaces)
	s.router.POST("/api/v1/frames", s.handlerSend)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics))
	}
}

func (s *Server) Start() {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler: s.router,
	}

	go func() {
		s.log.Info().
			Str("host", s.cfg.Host).
			Int("port", s.cfg.Port).
			Msg("starting HTTP server")

		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Fatalf("failed to start HTTP server: %v", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) accessLog(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()
	s.log.Debug().
		Str("method", ctx.Request.Method).
		Str("path", ctx.Request.URL.Path).
		Int("status", ctx.Writer.Status()).
		Dur("duration", time.Since(start)).
		Msg("request")
}

func (s *Server) handlerState(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.listenerUseCase.GetStatistic())
}

func (s *Server) handlerInterfaces(ctx *gin.Context) {
	ifs, err := s.interfaces()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list interfaces")
		ctx.JSON(http.StatusInternalServerError, &errorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, structs.Map(ifs, entityToInterface))
}

func (s *Server) handlerSend(ctx *gin.Context) {
	req := &sendRequest{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}

	frame, err := entity.ParseHexFrame(req.Frame)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, &errorResponse{Error: err.Error()})
		return
	}

	if err := s.listenerUseCase.Send(frame); err != nil {
		ctx.JSON(sendErrorStatus(err), &errorResponse{Error: err.Error()})
		return
	}

	ctx.JSON(http.StatusAccepted, &sendResponse{Size: len(frame)})
}

func sendErrorStatus(err error) int {
	switch {
	case errors.Is(err, entity.ErrFrameTooShort), errors.Is(err, entity.ErrWrongHardwareAddr):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrServerClosed), errors.Is(err, entity.ErrServerNotSet):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func entityToInterface(i *entity.Interface) *interfaceInfo {
	return &interfaceInfo{
		Index:        i.Index,
		Name:         i.Name,
		MTU:          i.MTU,
		HardwareAddr: structs.If(i.HardwareAddr == nil, "", i.HardwareAddr.String()),
		Flags:        i.Flags.String(),
		OperState:    i.OperState,
		Up:           i.Up,
	}
}
