package MinecraftWorldServer

import (
	"log/slog"
	"net"
	"time"
)

const (
	defaultKeepAliveEvery = 10 * time.Second
	defaultPollTimeout    = time.Second
)

// Server is a running Minecraft server. Sessions are independent: each
// accepted connection is handled on its own goroutine with no shared
// mutable state, so the wire of every session stays strictly ordered.
type Server struct {
	config Config
	log    *slog.Logger

	// keepAliveEvery is how often the play loop pings an idle client;
	// pollTimeout is the read deadline of one poll iteration.
	keepAliveEvery time.Duration
	pollTimeout    time.Duration
}

// NewServer creates a new Server. Zero-value config fields fall back to
// the defaults of DefaultConfig, except SimDistance, which falls back to
// the view distance.
func NewServer(cfg Config) *Server {
	def := DefaultConfig()
	if cfg.Port == "" {
		cfg.Port = def.Port
	}
	if cfg.MaxPlayers == 0 {
		cfg.MaxPlayers = def.MaxPlayers
	}
	if cfg.ViewDistance == 0 {
		cfg.ViewDistance = def.ViewDistance
	}
	if cfg.SimDistance == 0 {
		cfg.SimDistance = cfg.ViewDistance
	}
	if cfg.Motd == "" {
		cfg.Motd = def.Motd
	}

	return &Server{
		config:         cfg,
		log:            slog.Default(),
		keepAliveEvery: defaultKeepAliveEvery,
		pollTimeout:    defaultPollTimeout,
	}
}

// Start listens on the configured port and serves connections. It
// returns only if the listener cannot be opened; accept errors are
// logged and the loop continues. Each session runs on its own goroutine.
func (s *Server) Start() error {
	// The Go runtime sets SO_REUSEADDR on the listener; TCP_NODELAY is
	// applied per accepted connection in handleConnection.
	listener, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return err
	}
	defer listener.Close()

	s.log.Info("server listening",
		"port", s.config.Port,
		"version", minecraftVersionName,
		"protocol", minecraftProtocol)

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.log.Error("accept failed", "error", err)
			continue
		}
		go s.handleConnection(conn)
	}
}
