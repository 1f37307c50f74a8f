// Package export builds the three lookup mappings consumed by the client
// and reads/writes them as JSON files.
//
// # Files
//
//	type_ids.json    {"<id>": {"name": "<name>" | null}}
//	type_names.json  {"<name>": <id>}
//	bp_ids.json      {"<id>": {"o": <output qty>, "i": [[<qty>, <id>], ...], "b": <recipe id>}}
//
// bp_ids.json only lists types that have a manufacturing or reaction recipe.
// All files are UTF-8, indented with two spaces, with keys in sorted order,
// so writing the same [Export] twice produces byte-identical files.
package export

import (
	"github.com/matzehuels/shipyard/pkg/sde"
)

// File names inside the output directory.
const (
	TypeIDsFile    = "type_ids.json"
	TypeNamesFile  = "type_names.json"
	BlueprintsFile = "bp_ids.json"
)

// DefaultDir is the output directory relative to the working directory.
const DefaultDir = "data"

// Files lists the output files in write order.
var Files = []string{TypeIDsFile, TypeNamesFile, BlueprintsFile}

// TypeEntry is a value of type_ids.json. Name is nil when the type has no name.
type TypeEntry struct {
	Name *string `json:"name"`
}

// Input is one recipe input encoded as [quantity, type id].
type Input [2]int64

// Quantity returns the number of units consumed per run.
func (in Input) Quantity() int64 { return in[0] }

// TypeID returns the consumed type.
func (in Input) TypeID() sde.TypeID { return in[1] }

// Blueprint is a value of bp_ids.json.
type Blueprint struct {
	Output int64      `json:"o"`
	Inputs []Input    `json:"i"`
	Recipe sde.TypeID `json:"b"`
}

// Collision records two types sharing a display name. Kept is the id that
// ended up in type_names.json.
type Collision struct {
	Name    string     `json:"name"`
	Kept    sde.TypeID `json:"kept"`
	Dropped sde.TypeID `json:"dropped"`
}

// Export holds the three mappings plus diagnostics from building them.
type Export struct {
	TypeIDs    map[sde.TypeID]TypeEntry `json:"type_ids"`
	TypeNames  map[string]sde.TypeID    `json:"type_names"`
	Blueprints map[sde.TypeID]Blueprint `json:"bp_ids"`

	// Unnamed lists ids without a name, in build order.
	Unnamed []sde.TypeID `json:"unnamed,omitempty"`
	// Collisions lists name clashes, in build order.
	Collisions []Collision `json:"collisions,omitempty"`
}

// New returns an empty Export.
func New() *Export {
	return &Export{
		TypeIDs:    make(map[sde.TypeID]TypeEntry),
		TypeNames:  make(map[string]sde.TypeID),
		Blueprints: make(map[sde.TypeID]Blueprint),
	}
}

// Name returns the display name of id, or "" when unknown or unnamed.
func (e *Export) Name(id sde.TypeID) string {
	if entry, ok := e.TypeIDs[id]; ok && entry.Name != nil {
		return *entry.Name
	}
	return ""
}
