package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"shothook/internal/daemon"
	"shothook/internal/eventhub"
	"shothook/internal/ledger"
	"shothook/internal/logging"
)

// ServiceName prefixes every RPC method.
const ServiceName = "Shothook"

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

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

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
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
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
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun shothook stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Info("daemon shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.daemon.RequestShutdown()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.LockPath = status.LockFilePath
	resp.LedgerTarget = status.LedgerTarget
	resp.Jobs = status.Jobs
	resp.Subscriptions = status.Subscriptions
	resp.Hub = status.Hub
	resp.Viewers = status.Viewers
	resp.LastError = status.LastError
	resp.JobTotals = make(map[string]int, len(status.JobTotals))
	for k, v := range status.JobTotals {
		resp.JobTotals[string(k)] = v
	}
	return nil
}

func (s *service) JobList(req JobListRequest, resp *JobListResponse) error {
	records, err := s.daemon.Jobs(s.ctx, ledger.ListOptions{
		Limit:  req.Limit,
		Status: ledger.Status(strings.TrimSpace(req.Status)),
		Kind:   strings.TrimSpace(req.Kind),
	})
	if err != nil {
		return err
	}
	resp.Jobs = make([]JobRecord, 0, len(records))
	for _, rec := range records {
		resp.Jobs = append(resp.Jobs, FromRecord(rec))
	}
	return nil
}

// FromRecord converts a ledger record to its wire form.
func FromRecord(rec ledger.Record) JobRecord {
	return JobRecord{
		ID:            rec.ID,
		Kind:          rec.Kind,
		Key:           rec.Key,
		CorrelationID: rec.CorrelationID,
		Action:        rec.Action,
		User:          rec.User,
		Status:        string(rec.Status),
		Detail:        rec.Detail,
		ErrorMessage:  rec.ErrorMessage,
		ErrorKind:     rec.ErrorKind,
		StartedAt:     rec.StartedAt,
		FinishedAt:    rec.FinishedAt,
	}
}

func (s *service) Statuses(_ StatusesRequest, resp *StatusesResponse) error {
	for _, entry := range s.daemon.Statuses() {
		resp.Entries = append(resp.Entries, StatusEntry{
			Name:     string(entry.Name),
			ID:       entry.Status.ID,
			HostName: entry.Status.Name,
			Source:   entry.Source,
		})
	}
	return nil
}

func (s *service) Viewers(_ ViewersRequest, resp *ViewersResponse) error {
	for _, app := range s.daemon.Viewers() {
		resp.Viewers = append(resp.Viewers, ViewerEntry{
			Identifier: app.Identifier,
			Label:      app.Label,
			Variant:    app.Variant,
			Path:       app.Path,
		})
	}
	return nil
}

func (s *service) Emit(req EmitRequest, resp *EmitResponse) error {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return errors.New("emit requires a topic")
	}
	ev := eventhub.NewEvent(topic, req.Data)
	ev.Source = map[string]any{"id": "shothook-cli"}
	if user := strings.TrimSpace(req.Username); user != "" {
		ev.Source["user"] = map[string]any{"username": user}
	}
	if err := s.daemon.Publish(s.ctx, ev); err != nil {
		return err
	}
	s.logger.Info("event emitted via IPC",
		logging.String(logging.FieldEventType, "ipc_emit"),
		logging.String(logging.FieldTopic, topic),
		logging.String(logging.FieldEventID, ev.ID))
	resp.EventID = ev.ID
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	stream := s.daemon.LogStream()
	if stream == nil {
		resp.Offset = req.Offset
		return nil
	}
	if req.Offset == 0 && !req.Follow && req.Limit > 0 {
		resp.Events, resp.Offset = stream.Tail(req.Limit)
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}
	events, next, err := stream.Fetch(ctx, req.Offset, req.Limit, req.Follow)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	resp.Events = events
	resp.Offset = next
	return nil
}

func (s *service) TestNotification(req TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx, req.To)
	resp.Sent = sent
	resp.Message = message
	return err
}
