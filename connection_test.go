package MinecraftWorldServer

import (
	"bytes"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeConn is a scriptable net.Conn: reads serve a fixed client byte
// script, writes are captured for inspection. With idleTimeout set, an
// exhausted script yields deadline timeouts instead of EOF so the play
// loop keeps polling.
type fakeConn struct {
	mu          sync.Mutex
	in          *bytes.Reader
	out         bytes.Buffer
	closed      bool
	deadlineSet bool
	idleTimeout bool
}

func newFakeConn(script []byte) *fakeConn {
	return &fakeConn{in: bytes.NewReader(script)}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func (c *fakeConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	if c.in.Len() > 0 {
		return c.in.Read(p)
	}
	if c.idleTimeout && c.deadlineSet {
		return 0, timeoutError{}
	}
	return 0, io.EOF
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	return c.out.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) output() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.out.Bytes()...)
}

func (c *fakeConn) LocalAddr() net.Addr  { return &net.TCPAddr{IP: net.IPv4zero, Port: 25565} }
func (c *fakeConn) RemoteAddr() net.Addr { return &net.TCPAddr{IP: net.IPv4zero, Port: 54321} }

func (c *fakeConn) SetDeadline(t time.Time) error { return c.SetReadDeadline(t) }
func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlineSet = !t.IsZero()
	return nil
}
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

// clientFrame renders one serverbound packet as wire bytes.
func clientFrame(id int32, fields ...io.WriterTo) []byte {
	var buf bytes.Buffer
	if err := NewPacket(id, fields...).Pack(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// readFrames parses every clientbound frame the server emitted.
func readFrames(t *testing.T, raw []byte) []*Packet {
	t.Helper()
	rd := bytes.NewReader(raw)
	var frames []*Packet
	for rd.Len() > 0 {
		pk := new(Packet)
		if err := pk.Unpack(rd); err != nil {
			t.Fatalf("frame %d: %v", len(frames), err)
		}
		frames = append(frames, pk)
	}
	return frames
}

func testServer() *Server {
	return NewServer(Config{
		Port:         "25565",
		MaxPlayers:   1,
		ViewDistance: 2,
		SimDistance:  2,
		Motd:         "test",
	})
}

func loginScript(extra ...[]byte) []byte {
	var script []byte
	script = append(script, clientFrame(packetHandshake,
		VarInt(minecraftProtocol), String("127.0.0.1"), UnsignedShort(25565), VarInt(2))...)
	script = append(script, clientFrame(packetLoginStart, String("test"), UUID{})...)
	script = append(script, clientFrame(packetLoginAck)...)
	script = append(script, clientFrame(packetConfigFinishAck)...)
	for _, e := range extra {
		script = append(script, e...)
	}
	return script
}

func TestStatusFlow(t *testing.T) {
	// Handshake (proto 773, "127.0.0.1", 25565, next=1), Status
	// Request, Ping with payload 0 — the spec's hand-rolled vectors.
	script := []byte{
		0x10, 0x00, 0x85, 0x06, 0x09, '1', '2', '7', '.', '0', '.', '0', '.', '1', 0x63, 0xDD, 0x01,
		0x01, 0x00,
		0x09, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}

	fc := newFakeConn(script)
	testServer().handleConnection(fc)

	frames := readFrames(t, fc.output())
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want status response + pong", len(frames))
	}

	if frames[0].ID != packetStatusResponse {
		t.Errorf("frame 0 id = %#x, want %#x", frames[0].ID, packetStatusResponse)
	}
	var body String
	_, _ = body.ReadFrom(frames[0])
	if !strings.Contains(string(body), `"name":"1.21.4"`) ||
		!strings.Contains(string(body), `"protocol":769`) {
		t.Errorf("status JSON = %s", body)
	}

	if frames[1].ID != packetStatusPong {
		t.Errorf("frame 1 id = %#x, want %#x", frames[1].ID, packetStatusPong)
	}
	var payload Long
	_, _ = payload.ReadFrom(frames[1])
	if payload != 0 {
		t.Errorf("pong payload = %d, want 0", payload)
	}
}

func TestLoginToPlay(t *testing.T) {
	fc := newFakeConn(loginScript())
	testServer().handleConnection(fc)

	frames := readFrames(t, fc.output())

	// Login Success, 15 configuration packets, then the play sequence:
	// Login (Play), Game Event, Set Center Chunk, 25 chunks, Set Spawn,
	// Synchronize Position.
	wantFrames := 1 + 15 + 3 + 25 + 2
	if len(frames) != wantFrames {
		t.Fatalf("got %d frames, want %d", len(frames), wantFrames)
	}

	success := frames[0]
	if success.ID != packetLoginSuccess {
		t.Fatalf("frame 0 id = %#x, want login success", success.ID)
	}
	var id UUID
	var name String
	var props VarInt
	_, _ = id.ReadFrom(success)
	_, _ = name.ReadFrom(success)
	_, _ = props.ReadFrom(success)
	if id != (UUID{}) || name != "test" || props != 0 {
		t.Errorf("login success echoed %v %q %d", id, name, props)
	}

	wantIDs := []int32{
		packetConfigKnownPacks,
		packetConfigRegistryData, packetConfigRegistryData, packetConfigRegistryData,
		packetConfigRegistryData, packetConfigRegistryData, packetConfigRegistryData,
		packetConfigRegistryData, packetConfigRegistryData, packetConfigRegistryData,
		packetConfigRegistryData, packetConfigRegistryData, packetConfigRegistryData,
		packetConfigFeatureFlags,
		packetConfigFinish,
	}
	for i, want := range wantIDs {
		if frames[1+i].ID != want {
			t.Errorf("config frame %d id = %#x, want %#x", i, frames[1+i].ID, want)
		}
	}

	play := frames[16:]
	if play[0].ID != packetPlayLogin {
		t.Errorf("play frame 0 id = %#x, want login (play)", play[0].ID)
	}
	if play[1].ID != packetPlayGameEvent {
		t.Errorf("play frame 1 id = %#x, want game event", play[1].ID)
	}
	if play[2].ID != packetPlaySetCenterChunk {
		t.Errorf("play frame 2 id = %#x, want set center chunk", play[2].ID)
	}
	for i := 3; i < 28; i++ {
		if play[i].ID != packetPlayChunkData {
			t.Errorf("play frame %d id = %#x, want chunk data", i, play[i].ID)
		}
	}
	if play[28].ID != packetPlaySetSpawn {
		t.Errorf("play frame 28 id = %#x, want set spawn", play[28].ID)
	}
	if play[29].ID != packetPlaySyncPosition {
		t.Errorf("play frame 29 id = %#x, want sync position", play[29].ID)
	}

	// The teleport lands the player at the column's surface
	var tid VarInt
	var px, py, pz Double
	_, _ = tid.ReadFrom(play[29])
	_, _ = px.ReadFrom(play[29])
	_, _ = py.ReadFrom(play[29])
	_, _ = pz.ReadFrom(play[29])
	if tid != 1 || px != 0.5 || pz != 0.5 {
		t.Errorf("sync position = id %d at (%v, %v)", tid, px, pz)
	}
	if int(py) != terrainHeight(0, 0)+1 {
		t.Errorf("spawn y = %v, want %d", py, terrainHeight(0, 0)+1)
	}
}

func TestRecenterSendsOnlyNewChunks(t *testing.T) {
	// Move from chunk (0, 0) to (2, 0): with view distance 2 only the
	// columns cx 3..4 enter the window.
	move := clientFrame(packetPlayPosition,
		Double(40), Double(64), Double(0), UnsignedByte(0))

	fc := newFakeConn(loginScript(move))
	testServer().handleConnection(fc)

	frames := readFrames(t, fc.output())
	joined := 1 + 15 + 30
	extra := frames[joined:]

	if len(extra) != 11 {
		t.Fatalf("got %d frames after join, want center + 10 chunks", len(extra))
	}

	if extra[0].ID != packetPlaySetCenterChunk {
		t.Fatalf("recenter frame id = %#x, want set center chunk", extra[0].ID)
	}
	var cx, cz VarInt
	_, _ = cx.ReadFrom(extra[0])
	_, _ = cz.ReadFrom(extra[0])
	if cx != 2 || cz != 0 {
		t.Errorf("new center = (%d, %d), want (2, 0)", cx, cz)
	}

	want := make(map[chunkPos]bool)
	for x := int32(3); x <= 4; x++ {
		for z := int32(-2); z <= 2; z++ {
			want[chunkPos{x, z}] = true
		}
	}
	for i, pk := range extra[1:] {
		if pk.ID != packetPlayChunkData {
			t.Fatalf("frame %d id = %#x, want chunk data", i, pk.ID)
		}
		var x, z Int
		_, _ = x.ReadFrom(pk)
		_, _ = z.ReadFrom(pk)
		pos := chunkPos{int32(x), int32(z)}
		if !want[pos] {
			t.Errorf("chunk (%d, %d) retransmitted or out of window", x, z)
		}
		delete(want, pos)
	}
	if len(want) != 0 {
		t.Errorf("missing chunks: %v", want)
	}
}

func TestKeepAliveWhileIdle(t *testing.T) {
	fc := newFakeConn(loginScript())
	fc.idleTimeout = true

	s := testServer()
	s.keepAliveEvery = 20 * time.Millisecond
	s.pollTimeout = 5 * time.Millisecond

	done := make(chan struct{})
	go func() {
		s.handleConnection(fc)
		close(done)
	}()

	joined := 1 + 15 + 30
	deadline := time.After(2 * time.Second)
	for {
		frames := readFrames(t, fc.output())
		if len(frames) > joined {
			ka := frames[joined]
			if ka.ID != packetPlayKeepAlive {
				t.Fatalf("idle frame id = %#x, want keep-alive", ka.ID)
			}
			if ka.Len() != 8 {
				t.Fatalf("keep-alive payload is %d bytes, want 8", ka.Len())
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("no keep-alive within 2s of idle play")
		case <-time.After(5 * time.Millisecond):
		}
	}

	fc.Close()
	<-done
}

func TestMalformedFrameClosesSilently(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
	}{
		{"zero length prefix", []byte{0x00}},
		{"oversized length prefix", append([]byte{0x81, 0x80, 0x04}, make([]byte, 16)...)},
	}

	for _, tt := range tests {
		fc := newFakeConn(tt.script)
		testServer().handleConnection(fc)
		if out := fc.output(); len(out) != 0 {
			t.Errorf("%s: server replied with %d bytes, want silence", tt.name, len(out))
		}
	}
}

func TestHandshakeRejectsBadNextState(t *testing.T) {
	script := clientFrame(packetHandshake,
		VarInt(minecraftProtocol), String("127.0.0.1"), UnsignedShort(25565), VarInt(9))

	fc := newFakeConn(script)
	testServer().handleConnection(fc)
	if out := fc.output(); len(out) != 0 {
		t.Errorf("server replied to invalid next state with %d bytes", len(out))
	}
}

func TestUnknownPacketsAreIgnored(t *testing.T) {
	// An unknown login-state packet between Login Start and Login Ack
	// must be consumed without ending the session.
	var script []byte
	script = append(script, clientFrame(packetHandshake,
		VarInt(minecraftProtocol), String("127.0.0.1"), UnsignedShort(25565), VarInt(2))...)
	script = append(script, clientFrame(packetLoginStart, String("test"), UUID{})...)
	script = append(script, clientFrame(0x7F, Long(42))...)
	script = append(script, clientFrame(packetLoginAck)...)

	fc := newFakeConn(script)
	testServer().handleConnection(fc)

	frames := readFrames(t, fc.output())
	// Login Success plus the 15 configuration packets
	if len(frames) != 16 {
		t.Fatalf("got %d frames, want 16", len(frames))
	}
}
