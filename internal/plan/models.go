package plan

// Model describes one supported text-to-video model.
type Model struct {
	ID string
	// RepoID is the upstream identifier the diffusion backend loads.
	RepoID string
	// MinMemoryBytes is the smallest memory budget the model runs in without
	// exhausting the device.
	MinMemoryBytes uint64
	// ClipFrames is the longest clip the model emits in a single invocation.
	// Longer outputs are assembled by looping the clip.
	ClipFrames int
	// NativeWidth and NativeHeight are the resolution the model was trained at.
	NativeWidth  int
	NativeHeight int
}

const (
	ModelCogVideoX2B = "cogvideox-2b"
	ModelCogVideoX5B = "cogvideox-5b"
)

const gib = 1024 * 1024 * 1024

var models = map[string]Model{
	ModelCogVideoX2B: {
		ID:             ModelCogVideoX2B,
		RepoID:         "THUDM/CogVideoX-2b",
		MinMemoryBytes: 8 * gib,
		ClipFrames:     49,
		NativeWidth:    720,
		NativeHeight:   480,
	},
	ModelCogVideoX5B: {
		ID:             ModelCogVideoX5B,
		RepoID:         "THUDM/CogVideoX-5b",
		MinMemoryBytes: 24 * gib,
		ClipFrames:     49,
		NativeWidth:    1280,
		NativeHeight:   720,
	},
}

// Resolution is a named output size preset.
type Resolution struct {
	Name   string
	Width  int
	Height int
}

var resolutions = map[string]Resolution{
	"480p":  {Name: "480p", Width: 720, Height: 480},
	"720p":  {Name: "720p", Width: 1280, Height: 720},
	"1080p": {Name: "1080p", Width: 1920, Height: 1080},
}

// LookupModel returns the model for the given identifier.
func LookupModel(id string) (Model, bool) {
	m, ok := models[id]
	return m, ok
}

// LookupResolution returns the preset for the given name.
func LookupResolution(name string) (Resolution, bool) {
	r, ok := resolutions[name]
	return r, ok
}

// SupportedModels lists the supported model identifiers.
func SupportedModels() []string {
	return []string{ModelCogVideoX2B, ModelCogVideoX5B}
}

// SupportedResolutions lists the supported resolution names.
func SupportedResolutions() []string {
	return []string{"480p", "720p", "1080p"}
}
