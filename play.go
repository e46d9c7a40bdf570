package MinecraftWorldServer

import (
	"bufio"
	"errors"
	"net"
	"time"
)

// chunkPos addresses one chunk column.
type chunkPos struct {
	X, Z int32
}

// Player is one connected session. All fields are private to the
// session goroutine; nothing is shared across connections.
type Player struct {
	connection net.Conn
	reader     *bufio.Reader
	username   String
	id         UUID

	// Play-phase view state
	centerX, centerZ int32
	sentChunks       map[chunkPos]struct{}
}

// writeLoginPlay sends the Login (Play) packet that moves the client
// into the world.
func (p *Player) writeLoginPlay(cfg Config) error {
	login := NewPacket(packetPlayLogin,
		Int(1),                        // entity id
		Boolean(false),                // is hardcore
		VarInt(1),                     // one dimension
		String("minecraft:overworld"), // dimension names
		VarInt(cfg.MaxPlayers),
		VarInt(cfg.ViewDistance),
		VarInt(cfg.SimDistance),
		Boolean(false),                // reduced debug info
		Boolean(true),                 // enable respawn screen
		Boolean(false),                // limited crafting
		VarInt(0),                     // dimension type id
		String("minecraft:overworld"), // dimension name
		Long(0),                       // hashed seed
		UnsignedByte(1),               // gamemode creative
		UnsignedByte(0xFF),            // no previous gamemode
		Boolean(false),                // is debug
		Boolean(true),                 // is flat
		Boolean(false),                // no death location
		VarInt(0),                     // portal cooldown
		VarInt(63),                    // sea level
		Boolean(false),                // enforce secure chat
	)
	return login.Pack(p.connection)
}

func (p *Player) writeGameEvent(event uint8, value float32) error {
	return NewPacket(packetPlayGameEvent, UnsignedByte(event), Float(value)).Pack(p.connection)
}

// writeChunk sends the column at (cx, cz) and records it so re-centers
// never retransmit a chunk the client already holds.
func (p *Player) writeChunk(cx, cz int32) error {
	if err := chunkPacket(cx, cz).Pack(p.connection); err != nil {
		return err
	}
	p.sentChunks[chunkPos{cx, cz}] = struct{}{}
	return nil
}

// startPlay sends the join sequence and runs the play loop until the
// connection dies.
func (s *Server) startPlay(p *Player) error {
	if err := s.sendPlaySequence(p); err != nil {
		return err
	}
	return s.playLoop(p)
}

// sendPlaySequence emits the packets the client needs to spawn: Login
// (Play), the start-waiting-for-chunks game event, the view center, a
// full square of chunks, the spawn point and the initial teleport.
func (s *Server) sendPlaySequence(p *Player) error {
	if err := p.writeLoginPlay(s.config); err != nil {
		return err
	}

	// Game event 13: start waiting for level chunks
	if err := p.writeGameEvent(13, 0); err != nil {
		return err
	}

	if err := centerChunkPacket(0, 0).Pack(p.connection); err != nil {
		return err
	}

	vd := int32(s.config.ViewDistance)
	for cx := -vd; cx <= vd; cx++ {
		for cz := -vd; cz <= vd; cz++ {
			if err := p.writeChunk(cx, cz); err != nil {
				return err
			}
		}
	}

	spawnY := terrainHeight(0, 0) + 1

	spawn := NewPacket(packetPlaySetSpawn,
		Position{X: 0, Y: int32(spawnY), Z: 0},
		Float(0), // angle
	)
	if err := spawn.Pack(p.connection); err != nil {
		return err
	}

	sync := NewPacket(packetPlaySyncPosition,
		VarInt(1), // teleport id
		Double(0.5), Double(spawnY), Double(0.5),
		Double(0), Double(0), Double(0), // velocity
		Float(0), Float(0), // yaw, pitch
		Int(0), // flags: all absolute
	)
	return sync.Pack(p.connection)
}

// playLoop polls the socket with a short deadline so keep-alives go out
// on time even while the client is idle. Position packets move the view
// center; everything else is consumed and ignored.
func (s *Server) playLoop(p *Player) error {
	in := new(Packet)
	lastKeepAlive := time.Now()

	for {
		_ = p.connection.SetReadDeadline(time.Now().Add(s.pollTimeout))
		err := in.Unpack(p.reader)
		switch {
		case err == nil:
			if in.ID == packetPlayPosition || in.ID == packetPlayPositionLook {
				var x, y, z Double
				if _, err := x.ReadFrom(in); err != nil {
					return err
				}
				if _, err := y.ReadFrom(in); err != nil {
					return err
				}
				if _, err := z.ReadFrom(in); err != nil {
					return err
				}
				if err := s.recenter(p, x, z); err != nil {
					return err
				}
			}
		default:
			var ne net.Error
			if !errors.As(err, &ne) || !ne.Timeout() {
				return err
			}
		}

		if time.Since(lastKeepAlive) >= s.keepAliveEvery {
			ka := NewPacket(packetPlayKeepAlive, Long(time.Now().UnixMilli()))
			if err := ka.Pack(p.connection); err != nil {
				return err
			}
			lastKeepAlive = time.Now()
		}
	}
}

// recenter moves the client's view to the chunk containing (x, z) and
// streams the chunks of the new window the client has not seen yet.
func (s *Server) recenter(p *Player, x, z Double) error {
	newCX := coordinateToChunk(x)
	newCZ := coordinateToChunk(z)
	if newCX == p.centerX && newCZ == p.centerZ {
		return nil
	}
	p.centerX, p.centerZ = newCX, newCZ

	if err := centerChunkPacket(newCX, newCZ).Pack(p.connection); err != nil {
		return err
	}

	vd := int32(s.config.ViewDistance)
	for cx := newCX - vd; cx <= newCX+vd; cx++ {
		for cz := newCZ - vd; cz <= newCZ+vd; cz++ {
			if _, sent := p.sentChunks[chunkPos{cx, cz}]; sent {
				continue
			}
			if err := p.writeChunk(cx, cz); err != nil {
				return err
			}
		}
	}
	return nil
}
