package MinecraftWorldServer

// damageType is one entry of the minecraft:damage_type registry.
type damageType struct {
	id         string
	messageID  string
	scaling    string
	exhaustion float32
}

const (
	scaleNonPlayer = "when_caused_by_living_non_player"
	scaleAlways    = "always"
)

// damageTypes lists the 49 canonical 1.21.4 damage types. The client
// validates the registry against its own schema and refuses to enter
// Play if an entry is missing.
var damageTypes = []damageType{
	{"minecraft:arrow", "arrow", scaleNonPlayer, 0.1},
	{"minecraft:bad_respawn_point", "badRespawnPoint", scaleAlways, 0.1},
	{"minecraft:cactus", "cactus", scaleNonPlayer, 0.1},
	{"minecraft:campfire", "inFire", scaleNonPlayer, 0.1},
	{"minecraft:cramming", "cramming", scaleNonPlayer, 0.0},
	{"minecraft:dragon_breath", "dragonBreath", scaleNonPlayer, 0.0},
	{"minecraft:drown", "drown", scaleNonPlayer, 0.0},
	{"minecraft:dry_out", "dryout", scaleNonPlayer, 0.1},
	{"minecraft:ender_pearl", "fall", scaleNonPlayer, 0.0},
	{"minecraft:explosion", "explosion", scaleAlways, 0.1},
	{"minecraft:fall", "fall", scaleNonPlayer, 0.0},
	{"minecraft:falling_anvil", "anvil", scaleNonPlayer, 0.1},
	{"minecraft:falling_block", "fallingBlock", scaleNonPlayer, 0.1},
	{"minecraft:falling_stalactite", "fallingStalactite", scaleNonPlayer, 0.1},
	{"minecraft:fireball", "fireball", scaleNonPlayer, 0.1},
	{"minecraft:fireworks", "fireworks", scaleNonPlayer, 0.1},
	{"minecraft:fly_into_wall", "flyIntoWall", scaleNonPlayer, 0.0},
	{"minecraft:freeze", "freeze", scaleNonPlayer, 0.0},
	{"minecraft:generic", "generic", scaleNonPlayer, 0.0},
	{"minecraft:generic_kill", "genericKill", scaleNonPlayer, 0.0},
	{"minecraft:hot_floor", "hotFloor", scaleNonPlayer, 0.1},
	{"minecraft:in_fire", "inFire", scaleNonPlayer, 0.1},
	{"minecraft:in_wall", "inWall", scaleNonPlayer, 0.0},
	{"minecraft:indirect_magic", "indirectMagic", scaleNonPlayer, 0.0},
	{"minecraft:lava", "lava", scaleNonPlayer, 0.1},
	{"minecraft:lightning_bolt", "lightningBolt", scaleNonPlayer, 0.1},
	{"minecraft:mace_smash", "mace_smash", scaleNonPlayer, 0.1},
	{"minecraft:magic", "magic", scaleNonPlayer, 0.0},
	{"minecraft:mob_attack", "mob", scaleNonPlayer, 0.1},
	{"minecraft:mob_attack_no_aggro", "mob", scaleNonPlayer, 0.1},
	{"minecraft:mob_projectile", "mob", scaleNonPlayer, 0.1},
	{"minecraft:on_fire", "onFire", scaleNonPlayer, 0.0},
	{"minecraft:out_of_world", "outOfWorld", scaleNonPlayer, 0.0},
	{"minecraft:outside_border", "outsideBorder", scaleNonPlayer, 0.0},
	{"minecraft:player_attack", "player", scaleNonPlayer, 0.1},
	{"minecraft:player_explosion", "explosion.player", scaleAlways, 0.1},
	{"minecraft:sonic_boom", "sonic_boom", scaleAlways, 0.0},
	{"minecraft:spit", "mob", scaleNonPlayer, 0.1},
	{"minecraft:stalagmite", "stalagmite", scaleNonPlayer, 0.0},
	{"minecraft:starve", "starve", scaleNonPlayer, 0.0},
	{"minecraft:sting", "sting", scaleNonPlayer, 0.1},
	{"minecraft:sweet_berry_bush", "sweetBerryBush", scaleNonPlayer, 0.1},
	{"minecraft:thorns", "thorns", scaleNonPlayer, 0.1},
	{"minecraft:thrown", "thrown", scaleNonPlayer, 0.1},
	{"minecraft:trident", "trident", scaleNonPlayer, 0.1},
	{"minecraft:unattributed_fireball", "onFire", scaleNonPlayer, 0.1},
	{"minecraft:wind_charge", "mob", scaleNonPlayer, 0.1},
	{"minecraft:wither", "wither", scaleNonPlayer, 0.0},
	{"minecraft:wither_skull", "witherSkull", scaleNonPlayer, 0.1},
}

// emptyRegistries are advertised with zero entries so the client falls
// back to no content for them instead of waiting for data.
var emptyRegistries = []string{
	"minecraft:trim_pattern",
	"minecraft:trim_material",
	"minecraft:banner_pattern",
	"minecraft:enchantment",
	"minecraft:jukebox_song",
	"minecraft:instrument",
}

// registryPacket starts a Registry Data packet for one registry id
// holding count inline entries.
func registryPacket(registry string, count int) *Packet {
	return NewPacket(packetConfigRegistryData, String(registry), VarInt(count))
}

// entryHeader appends an entry id followed by the "inline data" flag.
func entryHeader(pk *Packet, id string) {
	_, _ = String(id).WriteTo(pk)
	_, _ = Boolean(true).WriteTo(pk)
}

func dimensionTypePacket() *Packet {
	pk := registryPacket("minecraft:dimension_type", 1)
	entryHeader(pk, "minecraft:overworld")

	nbt := newNBTWriter(pk)
	nbt.Begin()
	nbt.Byte("has_skylight", 1)
	nbt.Byte("has_ceiling", 0)
	nbt.Byte("ultrawarm", 0)
	nbt.Byte("natural", 1)
	nbt.Double("coordinate_scale", 1.0)
	nbt.Byte("bed_works", 1)
	nbt.Byte("respawn_anchor_works", 0)
	nbt.Int("min_y", minY)
	nbt.Int("height", 384)
	nbt.Int("logical_height", 384)
	nbt.String("infiniburn", "#minecraft:infiniburn_overworld")
	nbt.String("effects", "minecraft:overworld")
	nbt.Float("ambient_light", 0.0)
	nbt.Byte("piglin_safe", 0)
	nbt.Byte("has_raids", 1)
	nbt.Int("monster_spawn_light_level", 0)
	nbt.Int("monster_spawn_block_light_limit", 0)
	nbt.End()
	return pk
}

func biomePacket() *Packet {
	pk := registryPacket("minecraft:worldgen/biome", 1)
	entryHeader(pk, "minecraft:plains")

	nbt := newNBTWriter(pk)
	nbt.Begin()
	nbt.Byte("has_precipitation", 1)
	nbt.Float("temperature", 0.8)
	nbt.Float("downfall", 0.4)
	nbt.Compound("effects")
	nbt.Int("sky_color", 7907327)
	nbt.Int("fog_color", 12638463)
	nbt.Int("water_color", 4159204)
	nbt.Int("water_fog_color", 329011)
	nbt.End()
	nbt.End()
	return pk
}

func chatTypePacket() *Packet {
	pk := registryPacket("minecraft:chat_type", 1)
	entryHeader(pk, "minecraft:chat")

	params := []string{"sender", "content"}

	nbt := newNBTWriter(pk)
	nbt.Begin()
	nbt.Compound("chat")
	nbt.String("translation_key", "chat.type.text")
	nbt.StringList("parameters", params)
	nbt.End()
	nbt.Compound("narration")
	nbt.String("translation_key", "chat.type.text.narrate")
	nbt.StringList("parameters", params)
	nbt.End()
	nbt.End()
	return pk
}

func damageTypePacket() *Packet {
	pk := registryPacket("minecraft:damage_type", len(damageTypes))
	for _, dt := range damageTypes {
		entryHeader(pk, dt.id)
		nbt := newNBTWriter(pk)
		nbt.Begin()
		nbt.String("message_id", dt.messageID)
		nbt.String("scaling", dt.scaling)
		nbt.Float("exhaustion", dt.exhaustion)
		nbt.End()
	}
	return pk
}

func paintingVariantPacket() *Packet {
	pk := registryPacket("minecraft:painting_variant", 1)
	entryHeader(pk, "minecraft:kebab")

	nbt := newNBTWriter(pk)
	nbt.Begin()
	nbt.String("asset_id", "minecraft:kebab")
	nbt.Int("width", 1)
	nbt.Int("height", 1)
	nbt.End()
	return pk
}

func wolfVariantPacket() *Packet {
	pk := registryPacket("minecraft:wolf_variant", 1)
	entryHeader(pk, "minecraft:pale")

	nbt := newNBTWriter(pk)
	nbt.Begin()
	nbt.String("wild_texture", "minecraft:entity/wolf/wolf")
	nbt.String("tame_texture", "minecraft:entity/wolf/wolf_tame")
	nbt.String("angry_texture", "minecraft:entity/wolf/wolf_angry")
	nbt.String("biomes", "minecraft:plains")
	nbt.End()
	return pk
}

// writeConfigSequence emits the full Configuration phase: Known Packs,
// the registries the 1.21.4 client requires, Feature Flags and Finish
// Configuration. The client answers with its own Finish ack.
func (p *Player) writeConfigSequence() error {
	packets := []*Packet{
		NewPacket(packetConfigKnownPacks, VarInt(0)),
		dimensionTypePacket(),
		biomePacket(),
		chatTypePacket(),
		damageTypePacket(),
		paintingVariantPacket(),
		wolfVariantPacket(),
	}
	for _, registry := range emptyRegistries {
		packets = append(packets, registryPacket(registry, 0))
	}
	packets = append(packets,
		NewPacket(packetConfigFeatureFlags, VarInt(1), String("minecraft:vanilla")),
		NewPacket(packetConfigFinish),
	)

	for _, pk := range packets {
		if err := pk.Pack(p.connection); err != nil {
			return err
		}
	}
	return nil
}
