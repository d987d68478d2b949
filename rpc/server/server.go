package server

import (
	"net/http"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/mKV/lib/db"
	"github.com/ValentinKolb/mKV/lib/db/engines/pebbledb"
	"github.com/ValentinKolb/mKV/lib/registry"
	"github.com/ValentinKolb/mKV/rpc/common"
	"github.com/ValentinKolb/mKV/rpc/serializer"
	"github.com/ValentinKolb/mKV/rpc/transport"
	httpTransport "github.com/ValentinKolb/mKV/rpc/transport/http"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		http.NewHttpServerTransport(),
//		serializer.NewJSONSerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		engine:     pebbledb.NewEngine(),
	}
}

// RPCServer serves the databases below config.DataDir over one transport
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	engine     db.Engine

	mu       sync.Mutex
	registry registry.IRegistry
	metrics  *http.Server
}

// NewHandler returns the transport handler that decodes a request, dispatches it and
// encodes the response frame
func NewHandler(d IDispatcher, s serializer.IRPCSerializer) transport.ServerHandleFunc {
	return func(req []byte) []byte {
		var msg common.Request
		var resp common.Response

		if err := s.DecodeRequest(req, &msg); err != nil {
			resp = buildEnvelope(nil, fail(common.KindInvalidValue, "failed to decode request: %v", err))
		} else {
			resp = d.Dispatch(&msg)
		}

		body, err := s.EncodeResponse(resp)
		if err != nil {
			Logger.Errorf("Failed to encode response for %s: %v", msg.Command, err)
			resp = buildEnvelope(&msg, fail(common.KindRuntimeError, "failed to encode response: %v", err))
			if body, err = s.EncodeResponse(resp); err != nil {
				Logger.Errorf("Failed to encode error response: %v", err)
				return nil
			}
		}
		return common.PackResponse(body, resp.Header.Compression)
	}
}

func (s *RPCServer) init() error {

	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	Logger.Infof("%s", s.config.String())

	reg, err := registry.NewRegistry(s.config.DataDir, s.engine)
	if err != nil {
		return errors.Wrapf(err, "failed to open registry in %s", s.config.DataDir)
	}

	// the default database always exists
	if s.config.DefaultDB != "" && !reg.Exists(s.config.DefaultDB) {
		uid, err := reg.Add(s.config.DefaultDB, db.DefaultOptions())
		if err != nil {
			_ = reg.Close()
			return errors.Wrapf(err, "failed to create default database %s", s.config.DefaultDB)
		}
		Logger.Infof("Created default database %s (%s)", s.config.DefaultDB, uid)
	}

	s.mu.Lock()
	s.registry = reg
	s.mu.Unlock()

	// Configure the transport layer
	s.transport.RegisterHandler(NewHandler(NewDispatcher(reg, Logger), s.serializer))

	if s.config.MetricsEndpoint != "" {
		s.startMetrics()
	}

	Logger.Infof("mKV setup completed successfully, serving %d database(s)", len(reg.List()))
	return nil
}

// startMetrics serves /metrics on the configured metrics endpoint
func (s *RPCServer) startMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+httpTransport.MetricsPath, httpTransport.HandleMetrics)

	srv := &http.Server{
		Addr:              s.config.MetricsEndpoint,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.metrics = srv
	s.mu.Unlock()

	go func() {
		Logger.Infof("Serving metrics on %s%s", s.config.MetricsEndpoint, httpTransport.MetricsPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics server failed: %v", err)
		}
	}()
}

// Serve starts the RPC server
// This function will also open the registry and start the transport layer.
// It blocks until the transport stops.
func (s *RPCServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}
	return s.transport.Listen(s.config)
}

// Close stops the transport and the metrics endpoint and closes all databases
func (s *RPCServer) Close() error {
	var errs error
	if err := s.transport.Close(); err != nil {
		errs = errors.CombineErrors(errs, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.metrics != nil {
		if err := s.metrics.Close(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
		s.metrics = nil
	}
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
		s.registry = nil
	}
	return errs
}
