package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"lingocast/internal/api"
	"lingocast/internal/daemon"
	"lingocast/internal/logging"
	"lingocast/internal/manifest"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx, socketPath: path}
	if err := rpcServer.RegisterName("Lingocast", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"))
	}
}

type service struct {
	daemon     *daemon.Daemon
	logger     *slog.Logger
	ctx        context.Context
	socketPath string
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.JobDBPath = status.JobDBPath
	resp.LockPath = status.LockFilePath
	resp.ActiveJobs = status.ActiveJobs
	resp.DaemonLog = s.daemon.LogPath()
	resp.SocketPath = s.socketPath
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Submit(req SubmitRequest, resp *SubmitResponse) error {
	snap, err := s.daemon.Submit(s.ctx, req.Path, req.Languages)
	if err != nil {
		return err
	}
	resp.Job = api.FromSnapshot(snap)
	s.log().Info("job submitted via IPC",
		logging.String(logging.FieldJobID, snap.ID),
		logging.String(logging.FieldEventType, "job_submit"))
	return nil
}

func (s *service) JobList(_ JobListRequest, resp *JobListResponse) error {
	snaps, err := s.daemon.ListJobs(s.ctx)
	if err != nil {
		return err
	}
	resp.Jobs = api.FromSnapshots(snaps)
	return nil
}

func (s *service) JobDescribe(req JobDescribeRequest, resp *JobDescribeResponse) error {
	if req.ID == "" {
		return errors.New("job id required")
	}
	snap, found, err := s.daemon.GetJob(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("job %s not found", req.ID)
	}
	resp.Job = api.FromSnapshot(snap)
	return nil
}

func (s *service) AddLanguages(req AddLanguagesRequest, resp *AddLanguagesResponse) error {
	if req.ID == "" {
		return errors.New("job id required")
	}
	snap, err := s.daemon.AddLanguages(s.ctx, req.ID, req.Languages)
	if err != nil {
		return err
	}
	resp.Job = api.FromSnapshot(snap)
	s.log().Info("languages added via IPC",
		logging.String(logging.FieldJobID, req.ID),
		logging.String(logging.FieldEventType, "languages_add"))
	return nil
}

func (s *service) Tracks(req TracksRequest, resp *TracksResponse) error {
	if req.ID == "" {
		return errors.New("job id required")
	}
	tracks, ok := s.daemon.Tracks(req.ID)
	if !ok {
		return fmt.Errorf("job %s is not active", req.ID)
	}
	resp.Tracks = api.FromTracks(tracks)
	return nil
}

func (s *service) Manifests(req ManifestsRequest, resp *ManifestsResponse) error {
	if req.ID == "" {
		return errors.New("job id required")
	}
	manifests, err := s.daemon.Manifests(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Manifests = api.FromManifests(manifests)
	return nil
}

func (s *service) SelectProtocol(req SelectProtocolRequest, resp *SelectProtocolResponse) error {
	if req.ID == "" {
		return errors.New("job id required")
	}
	protocols := manifest.ParseProtocols([]string{req.Protocol})
	if len(protocols) == 0 {
		return fmt.Errorf("unknown protocol %q", req.Protocol)
	}
	if err := s.daemon.SelectProtocol(s.ctx, req.ID, protocols[0]); err != nil {
		return err
	}
	resp.Protocol = string(protocols[0])
	return nil
}
