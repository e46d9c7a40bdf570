package MinecraftWorldServer

import "bytes"

// Light mask layout for a 24-section world: 26 mask bits cover the
// sections plus one boundary section below and above.
const (
	skyLightMask      = 0x0E       // sections 0..2 carry sky light arrays
	emptySkyLightMask = 0x01       // the below-world boundary section
	emptyBlockMask    = 0x03FFFFFF // no block light anywhere
)

// writeAirSection emits the single-value short form: zero non-air
// blocks, a palette holding only AIR, and an empty biome container.
func writeAirSection(buf *bytes.Buffer) {
	_, _ = Short(0).WriteTo(buf)
	_, _ = UnsignedByte(0).WriteTo(buf)
	_, _ = VarInt(blockPalette[piAir]).WriteTo(buf)
	_, _ = VarInt(0).WriteTo(buf)
	_, _ = UnsignedByte(0).WriteTo(buf)
	_, _ = VarInt(0).WriteTo(buf)
	_, _ = VarInt(0).WriteTo(buf)
}

// writeSection encodes one 16x16x16 section at index si (0 = world y
// -64) into buf: non-air count, 4 bits per entry, the fixed 9-entry
// palette, 256 packed longs and an empty biome container. Sections
// whose lowest y is above maxH+1 short-form to air without scanning.
func writeSection(buf *bytes.Buffer, cx, cz int32, si int, heights *[16][16]int, maxH int, trees []tree) {
	baseY := si*16 + minY

	if baseY > maxH+1 {
		writeAirSection(buf)
		return
	}

	blockCount := 0
	var longs [256]int64

	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				wx, wy, wz := int(cx)*16+x, baseY+y, int(cz)*16+z
				pi := blockAt(wx, wy, wz, heights[x][z], trees)
				if pi != piAir {
					blockCount++
				}
				idx := x + z*16 + y*256
				longs[idx/16] |= (int64(pi) & 0xF) << ((idx % 16) * 4)
			}
		}
	}

	if blockCount == 0 {
		writeAirSection(buf)
		return
	}

	_, _ = Short(blockCount).WriteTo(buf)
	_, _ = UnsignedByte(4).WriteTo(buf)
	_, _ = VarInt(len(blockPalette)).WriteTo(buf)
	for _, id := range blockPalette {
		_, _ = VarInt(id).WriteTo(buf)
	}
	_, _ = VarInt(len(longs)).WriteTo(buf)
	for _, l := range longs {
		_, _ = Long(l).WriteTo(buf)
	}

	// Biome container: single-value plains
	_, _ = UnsignedByte(0).WriteTo(buf)
	_, _ = VarInt(0).WriteTo(buf)
	_, _ = VarInt(0).WriteTo(buf)
}

// skyLightSection fills a 2048-byte nibble array for section si. A cell
// is fully lit above the column's sky height and dark at or below it.
// Low nibble holds even cell indices, high nibble odd ones.
func skyLightSection(light *[2048]byte, si int, skyH *[16][16]int) {
	for i := range light {
		light[i] = 0
	}
	baseY := si*16 + minY
	for y := 0; y < 16; y++ {
		for z := 0; z < 16; z++ {
			for x := 0; x < 16; x++ {
				if baseY+y <= skyH[x][z] {
					continue
				}
				idx := x + z*16 + y*256
				if idx&1 == 1 {
					light[idx/2] |= 0xF0
				} else {
					light[idx/2] |= 0x0F
				}
			}
		}
	}
}

// packHeightmap packs the per-column sky heights into the 37-long
// MOTION_BLOCKING array: 9 bits per column, seven columns per long,
// value = height above the world floor plus one.
func packHeightmap(skyH *[16][16]int) [37]int64 {
	var longs [37]int64
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			col := x + z*16
			val := skyH[x][z] - minY + 1
			if val < 0 {
				val = 0
			}
			longs[col/7] |= (int64(val) & 0x1FF) << ((col % 7) * 9)
		}
	}
	return longs
}

// chunkPacket assembles the Chunk Data and Update Light packet for the
// column at (cx, cz): coordinates, MOTION_BLOCKING heightmap, the 24
// section encodings, light masks and three sky light arrays.
func chunkPacket(cx, cz int32) *Packet {
	var heights [16][16]int
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			heights[x][z] = terrainHeight(int(cx)*16+x, int(cz)*16+z)
		}
	}

	trees := findTrees(cx, cz)

	// Sky height per column: terrain raised to sea level for water,
	// then raised again under any canopy cell.
	var skyH [16][16]int
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			h := heights[x][z]
			if h < seaLevel {
				h = seaLevel
			}
			for _, t := range trees {
				dx := int(cx)*16 + x - t.bx
				dz := int(cz)*16 + z - t.bz
				if mdy := maxTreeDY(dx, dz); mdy >= 0 {
					if ty := t.ground + 1 + mdy; ty > h {
						h = ty
					}
				}
			}
			skyH[x][z] = h
		}
	}

	// Highest cell any section can contain; water only raises it when
	// the column is below the sea surface.
	maxH := -999
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			h := heights[x][z]
			if h < seaLevel && seaLevel > maxH {
				maxH = seaLevel
			}
			if h > maxH {
				maxH = h
			}
		}
	}
	for _, t := range trees {
		if top := t.ground + 5; top > maxH {
			maxH = top
		}
	}

	var sections bytes.Buffer
	for si := 0; si < numSections; si++ {
		writeSection(&sections, cx, cz, si, &heights, maxH, trees)
	}

	hmLongs := packHeightmap(&skyH)

	pk := NewPacket(packetPlayChunkData, Int(cx), Int(cz))

	nbt := newNBTWriter(pk)
	nbt.Begin()
	nbt.LongArray("MOTION_BLOCKING", hmLongs[:])
	nbt.End()

	_, _ = VarInt(sections.Len()).WriteTo(pk)
	_, _ = sections.WriteTo(pk)
	_, _ = VarInt(0).WriteTo(pk) // no block entities

	// Sky light mask: sections 0..2
	_, _ = VarInt(1).WriteTo(pk)
	_, _ = Long(skyLightMask).WriteTo(pk)
	// Block light mask: empty bitset
	_, _ = VarInt(0).WriteTo(pk)
	// Empty sky light mask: the boundary section below the world
	_, _ = VarInt(1).WriteTo(pk)
	_, _ = Long(emptySkyLightMask).WriteTo(pk)
	// Empty block light mask: all 26
	_, _ = VarInt(1).WriteTo(pk)
	_, _ = Long(emptyBlockMask).WriteTo(pk)

	// Sky light arrays for sections 0 and 1, computed per column
	_, _ = VarInt(3).WriteTo(pk)
	var light [2048]byte
	for si := 0; si < 2; si++ {
		skyLightSection(&light, si, &skyH)
		_, _ = VarInt(len(light)).WriteTo(pk)
		_, _ = pk.Write(light[:])
	}
	// Section 2 is sent as full daylight whatever the surface height
	for i := range light {
		light[i] = 0xFF
	}
	_, _ = VarInt(len(light)).WriteTo(pk)
	_, _ = pk.Write(light[:])

	// Block light arrays: none
	_, _ = VarInt(0).WriteTo(pk)

	return pk
}

// centerChunkPacket builds the Set Center Chunk notification.
func centerChunkPacket(cx, cz int32) *Packet {
	return NewPacket(packetPlaySetCenterChunk, VarInt(cx), VarInt(cz))
}
