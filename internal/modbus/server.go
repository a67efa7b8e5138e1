package modbus

import (
	"context"
	"errors"
	"io"
	"net"

	"go.uber.org/zap"
)

// Server accepts gate-controller connections and serves each one as a
// sequence of synchronous request/response units: read a frame, run the
// dispatcher, write the reply. Multiple gates connect concurrently;
// each gets its own goroutine and shares only the stateless dispatcher.
type Server struct {
	addr       string
	dispatcher *Dispatcher
	log        *zap.Logger
}

func NewServer(addr string, dispatcher *Dispatcher, log *zap.Logger) *Server {
	return &Server{addr: addr, dispatcher: dispatcher, log: log}
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.log.Info("modbus gate endpoint listening", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.log.Info("gate connected", zap.String("remote", remote))
	defer func() {
		_ = conn.Close()
		s.log.Info("gate disconnected", zap.String("remote", remote))
	}()

	for {
		if ctx.Err() != nil {
			return
		}

		req, err := ReadRequest(conn)
		switch {
		case err == nil:
		case errors.Is(err, ErrMalformedPDU):
			// Frame identity is intact; answer and keep the connection.
			s.log.Warn("malformed request PDU",
				zap.String("remote", remote), zap.Error(err))
			resp := exception(req, req.PDU.Function(), ExcIllegalDataValue)
			if werr := WriteResponse(conn, resp); werr != nil {
				s.log.Warn("write response failed",
					zap.String("remote", remote), zap.Error(werr))
				return
			}
			continue
		case errors.Is(err, io.EOF):
			return
		default:
			// Stream synchronization is lost; drop the connection. The
			// device re-establishes and re-issues on its own.
			s.log.Warn("unreadable gate frame",
				zap.String("remote", remote), zap.Error(err))
			return
		}

		resp := s.dispatcher.Handle(ctx, req)
		if err := WriteResponse(conn, resp); err != nil {
			s.log.Warn("write response failed",
				zap.String("remote", remote), zap.Error(err))
			return
		}
	}
}
