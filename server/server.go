package server

import (
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sisu-network/lib/log"
)

type Server struct {
	handler       *gin.Engine
	listenAddress string
}

func NewServer(handler *gin.Engine, port int) *Server {
	return &Server{
		handler:       handler,
		listenAddress: fmt.Sprintf("0.0.0.0:%d", port),
	}
}

func (s *Server) Run() {
	listener, err := net.Listen("tcp", s.listenAddress)
	if err != nil {
		panic(err)
	}

	srv := &http.Server{Handler: s.handler}
	log.Info("Running server at ", s.listenAddress)
	srv.Serve(listener)
}
