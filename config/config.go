// Package config holds the single live configuration record described in
// §3 ("Configuration object"): one in-memory struct with sub-sections for
// encoder, camera, stream, and server settings, loaded from a default+
// override YAML pair the way the teacher's server/config package does it.
package config

import (
	"encoding/json"
	"log"
	"os"
	"reflect"
	"sync"

	"gopkg.in/yaml.v3"
)

// Codec selects the video encoder's bitstream format (§3 subcmd Codec).
type Codec uint8

const (
	CodecH264 Codec = iota
	CodecH265
)

// EncoderConfig mirrors the encoder sub-commands of §3/§4.2. BitrateBps is
// stored in bits/second; the wire unit is kbps, converted exactly once at
// the dispatcher boundary (Open Questions §9: wire = kbps, config = bps).
type EncoderConfig struct {
	FPS         int    `yaml:"fps"         json:"fps"`
	BitrateBps  uint32 `yaml:"bitrateBps"  json:"bitrateBps"`
	GOP         int    `yaml:"gop"         json:"gop"`
	Codec       Codec  `yaml:"codec"       json:"codec"`
	VBR         bool   `yaml:"vbr"         json:"vbr"`
	PayloadSize int    `yaml:"payloadSize" json:"payloadSize"`
}

// CameraConfig mirrors the camera image-tuning sub-commands of §3/§4.2.
type CameraConfig struct {
	DeviceIndex int    `yaml:"deviceIndex" json:"deviceIndex"`
	Resolution  string `yaml:"resolution"  json:"resolution"`
	Brightness  int32  `yaml:"brightness"  json:"brightness"`
	Contrast    int32  `yaml:"contrast"    json:"contrast"`
	Saturation  int32  `yaml:"saturation"  json:"saturation"`
	Sharpness   int32  `yaml:"sharpness"   json:"sharpness"`
	HDR         bool   `yaml:"hdr"         json:"hdr"`
	MirrorFlip  uint8  `yaml:"mirrorFlip"  json:"mirrorFlip"`
	FocusMode   uint8  `yaml:"focusMode"   json:"focusMode"`
	Detection   bool   `yaml:"detection"   json:"detection"`
}

// StreamConfig holds the active stream/camera selection and WFB key (§3).
type StreamConfig struct {
	Selected int    `yaml:"selected" json:"selected"`
	WFBKey   string `yaml:"wfbKey"   json:"wfbKey"`
}

// ServerConfig holds the link addressing mode and the GS-facing IP used to
// (re)target the auxiliary tunnels on SetGSIP (§4.6).
type ServerConfig struct {
	Mode string `yaml:"mode" json:"mode"` // "direct" | "tunnel"
	GSIP string `yaml:"gsIp" json:"gsIp"`
}

// Config is the full live configuration record (§3). Exported fields are
// loaded/saved via YAML; in normal operation only the dispatcher mutates
// them, since the receive thread serializes command dispatch (§4.2 "State
// machine") — the mutex here only guards reads from other goroutines
// (telemetry producer, gsui control panel) racing that single writer.
type Config struct {
	Encoder       EncoderConfig        `yaml:"encoder"       json:"encoder"`
	Cameras       map[int]CameraConfig `yaml:"cameras"       json:"cameras"`
	Stream        StreamConfig         `yaml:"stream"        json:"stream"`
	Server        ServerConfig         `yaml:"server"        json:"server"`
	PersistedPath string               `yaml:"persistedPath" json:"persistedPath"`

	mu sync.RWMutex
}

// LoadResult holds both the effective merged config and the raw defaults,
// needed by SaveOverrides to compute a minimal diff.
type LoadResult struct {
	Config   *Config
	Defaults *Config
}

// Load reads the default YAML file as the baseline, then layers the
// override file on top if present, mirroring the teacher's
// server/config.Load default+override merge.
func Load(defaultsPath, overridePath string) *LoadResult {
	var defaults Config
	defaults.Cameras = map[int]CameraConfig{}

	data, err := os.ReadFile(defaultsPath)
	if err != nil {
		log.Fatal("config: read error: ", err)
	}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		log.Fatal("config: parse error: ", err)
	}

	cfg := Config{
		Encoder:       defaults.Encoder,
		Cameras:       cloneCameras(defaults.Cameras),
		Stream:        defaults.Stream,
		Server:        defaults.Server,
		PersistedPath: defaults.PersistedPath,
	}
	if ovData, err := os.ReadFile(overridePath); err == nil {
		if err := yaml.Unmarshal(ovData, &cfg); err != nil {
			log.Println("config: ignoring malformed override file:", err)
		}
	}

	return &LoadResult{Config: &cfg, Defaults: &defaults}
}

func cloneCameras(m map[int]CameraConfig) map[int]CameraConfig {
	out := make(map[int]CameraConfig, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// SaveOverrides writes only the fields that differ from defaults, the
// teacher's reflect.DeepEqual diff-map approach applied to SavePersistent
// / RestoreDefault (§3 sub-commands).
func SaveOverrides(path string, updated, defaults *Config) error {
	updated.mu.RLock()
	uMap := toMap(updated)
	updated.mu.RUnlock()

	defaults.mu.RLock()
	dMap := toMap(defaults)
	defaults.mu.RUnlock()

	diff := diffMaps(uMap, dMap)
	data, err := yaml.Marshal(diff)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func toMap(v any) map[string]any {
	b, _ := json.Marshal(v)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func diffMaps(override, defaults map[string]any) map[string]any {
	result := map[string]any{}
	for k, ov := range override {
		dv, ok := defaults[k]
		if !ok {
			result[k] = ov
			continue
		}
		if om, ok2 := ov.(map[string]any); ok2 {
			if dm, ok3 := dv.(map[string]any); ok3 {
				sub := diffMaps(om, dm)
				if len(sub) > 0 {
					result[k] = sub
				}
				continue
			}
		}
		if !reflect.DeepEqual(ov, dv) {
			result[k] = ov
		}
	}
	return result
}

// The following accessors are the "each field has a default, a setter, and
// a getter" record §3 calls for. The error-returning half of the setter
// contract (does the hardware accept the value?) lives in the dispatch
// package; these just guard the in-memory copy against concurrent GET
// traffic from other goroutines while the dispatcher remains the sole
// writer.

func (c *Config) GetEncoder() EncoderConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Encoder
}

func (c *Config) SetEncoder(e EncoderConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Encoder = e
}

func (c *Config) GetCamera(idx int) CameraConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Cameras[idx]
}

func (c *Config) SetCamera(idx int, cam CameraConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Cameras == nil {
		c.Cameras = map[int]CameraConfig{}
	}
	c.Cameras[idx] = cam
}

func (c *Config) GetStream() StreamConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Stream
}

func (c *Config) SetStream(s StreamConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Stream = s
}

func (c *Config) GetServer() ServerConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Server
}

func (c *Config) SetServer(s ServerConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Server = s
}
