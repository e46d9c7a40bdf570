package MinecraftWorldServer

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
)

// Packet ids, positional within the current connection state.
// Based on https://minecraft.wiki/w/Java_Edition_protocol (1.21.4, protocol 769)
const (
	// Serverbound
	packetHandshake        = 0x00
	packetStatusRequest    = 0x00
	packetStatusPing       = 0x01
	packetLoginStart       = 0x00
	packetLoginAck         = 0x03
	packetConfigFinishAck  = 0x03
	packetPlayPosition     = 0x1C
	packetPlayPositionLook = 0x1D

	// Clientbound
	packetStatusResponse     = 0x00
	packetStatusPong         = 0x01
	packetLoginSuccess       = 0x02
	packetConfigFinish       = 0x03
	packetConfigRegistryData = 0x07
	packetConfigFeatureFlags = 0x0C
	packetConfigKnownPacks   = 0x0E
	packetPlayGameEvent      = 0x23
	packetPlayKeepAlive      = 0x27
	packetPlayChunkData      = 0x28
	packetPlayLogin          = 0x2C
	packetPlaySyncPosition   = 0x42
	packetPlaySetCenterChunk = 0x58
	packetPlaySetSpawn       = 0x5B
)

// Connection states. The transitions form a DAG: Handshake branches to
// Status or Login, Login advances through Config into Play, and every
// connection lives through the chain exactly once.
type connState int

const (
	stateHandshake connState = iota
	stateStatus
	stateLogin
	stateConfig
	statePlay
)

const (
	maxServerAddress = 255
	maxUsername      = 16
)

var errMalformedHandshake = errors.New("malformed handshake")

// handleConnection drives one session through the protocol phases.
// Unknown packet ids within a state are consumed and dropped: clients
// send informational packets (plugin messages, client settings) the
// server has no use for, and closing on them would break interop.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	p := &Player{
		connection: conn,
		reader:     bufio.NewReader(conn),
		sentChunks: make(map[chunkPos]struct{}),
	}
	log := s.log.With("remote", conn.RemoteAddr().String())

	state := stateHandshake
	in := new(Packet)
	for {
		if err := in.Unpack(p.reader); err != nil {
			log.Info("session ended", "error", err)
			return
		}

		switch state {
		case stateHandshake:
			if in.ID != packetHandshake {
				continue
			}
			next, err := p.readHandshake(in, log)
			if err != nil {
				log.Info("session ended", "error", err)
				return
			}
			if next == 1 {
				state = stateStatus
			} else {
				state = stateLogin
			}

		case stateStatus:
			switch in.ID {
			case packetStatusRequest:
				if err := s.writeStatus(p); err != nil {
					return
				}
			case packetStatusPing:
				var payload Long
				if _, err := payload.ReadFrom(in); err != nil {
					return
				}
				_ = NewPacket(packetStatusPong, payload).Pack(p.connection)
				return
			}

		case stateLogin:
			switch in.ID {
			case packetLoginStart:
				if err := p.readLoginStart(in); err != nil {
					log.Info("session ended", "error", err)
					return
				}
				log.Info("login start", "username", p.username)
				success := NewPacket(packetLoginSuccess, p.id, p.username, VarInt(0))
				if err := success.Pack(p.connection); err != nil {
					return
				}
			case packetLoginAck:
				state = stateConfig
				if err := p.writeConfigSequence(); err != nil {
					return
				}
			}

		case stateConfig:
			if in.ID == packetConfigFinishAck {
				state = statePlay
				log.Info("entering play", "username", p.username)
				if err := s.startPlay(p); err != nil {
					log.Info("session ended", "username", p.username, "error", err)
				}
				return
			}
		}
	}
}

// readHandshake parses the first packet of a connection and returns the
// requested next state (1 = status, 2 = login).
func (p *Player) readHandshake(in *Packet, log *slog.Logger) (int32, error) {
	var (
		version VarInt
		address String
		port    UnsignedShort
		next    VarInt
	)
	if _, err := version.ReadFrom(in); err != nil {
		return 0, err
	}
	if _, err := address.ReadFrom(in); err != nil {
		return 0, err
	}
	if len(address) > maxServerAddress {
		return 0, errMalformedHandshake
	}
	if _, err := port.ReadFrom(in); err != nil {
		return 0, err
	}
	if _, err := next.ReadFrom(in); err != nil {
		return 0, err
	}
	if next != 1 && next != 2 {
		return 0, errMalformedHandshake
	}

	log.Info("handshake", "proto", int32(version), "addr", string(address), "port", uint16(port), "next", int32(next))
	return int32(next), nil
}

// readLoginStart parses a Login Start packet: username and client UUID.
// Both are echoed back verbatim in Login Success.
func (p *Player) readLoginStart(in *Packet) error {
	if _, err := p.username.ReadFrom(in); err != nil {
		return err
	}
	if len(p.username) > maxUsername {
		return errors.New("username too long")
	}
	if _, err := p.id.ReadFrom(in); err != nil {
		return err
	}
	return nil
}

// Status response JSON shape, as rendered by the vanilla server list.
type statusResponse struct {
	Version     statusVersion     `json:"version"`
	Players     statusPlayers     `json:"players"`
	Description statusDescription `json:"description"`
}

type statusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type statusPlayers struct {
	Max    int `json:"max"`
	Online int `json:"online"`
}

type statusDescription struct {
	Text string `json:"text"`
}

func (s *Server) writeStatus(p *Player) error {
	resp := statusResponse{
		Version:     statusVersion{Name: minecraftVersionName, Protocol: minecraftProtocol},
		Players:     statusPlayers{Max: s.config.MaxPlayers, Online: 0},
		Description: statusDescription{Text: s.config.Motd},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return NewPacket(packetStatusResponse, String(data)).Pack(p.connection)
}
