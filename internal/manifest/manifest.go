// Package manifest serializes a committed snapshot into a stable, versioned
// change manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/category"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
)

// SchemaVersion is the manifest format version written by Export.
const SchemaVersion = "1.0.0"

// Entry is one change to one profile field.
type Entry struct {
	Field       string            `json:"field"`
	Before      any               `json:"before"`
	After       any               `json:"after"`
	Rule        category.Category `json:"rule"`
	Description string            `json:"description"`
}

// ProfileChanges groups the entries of one profile.
type ProfileChanges struct {
	ProfileID   string  `json:"profile_id"`
	ProfileName string  `json:"profile_name"`
	Changes     []Entry `json:"changes"`
}

// Summary holds the aggregate counts of the run.
type Summary struct {
	Applied         int `json:"applied" jsonschema:"minimum=0"`
	Skipped         int `json:"skipped" jsonschema:"minimum=0"`
	PlatformManaged int `json:"platform_managed" jsonschema:"minimum=0"`
	Changes         int `json:"changes" jsonschema:"minimum=0"`
}

// Document is the exported manifest.
type Document struct {
	SchemaVersion string           `json:"schema_version"`
	SnapshotID    string           `json:"snapshot_id" jsonschema:"minLength=1"`
	Provider      string           `json:"provider" jsonschema:"minLength=1"`
	Timestamp     string           `json:"timestamp" jsonschema:"format=date-time"`
	Summary       Summary          `json:"summary"`
	Profiles      []ProfileChanges `json:"profiles"`
}

// Export builds the manifest for snap. Profiles appear in order of their first
// change and entries keep delta order. A snapshot without id, provider or
// timestamp is rejected.
func Export(snap sandbox.Snapshot) (Document, error) {
	switch {
	case snap.ID == "":
		return Document{}, errors.NewInvalidRequest("snapshot has no id")
	case snap.Provider == "":
		return Document{}, errors.NewInvalidRequest("snapshot has no provider")
	case snap.Timestamp.IsZero():
		return Document{}, errors.NewInvalidRequest("snapshot has no timestamp")
	}

	doc := Document{
		SchemaVersion: SchemaVersion,
		SnapshotID:    snap.ID,
		Provider:      string(snap.Provider),
		Timestamp:     snap.Timestamp.UTC().Format(time.RFC3339),
		Summary: Summary{
			Applied:         snap.Applied,
			Skipped:         snap.Skipped,
			PlatformManaged: snap.PlatformManaged,
			Changes:         len(snap.Changes),
		},
		Profiles: []ProfileChanges{},
	}

	pos := make(map[string]int)
	for _, d := range snap.Changes {
		i, ok := pos[d.ProfileID]
		if !ok {
			i = len(doc.Profiles)
			pos[d.ProfileID] = i
			doc.Profiles = append(doc.Profiles, ProfileChanges{
				ProfileID:   d.ProfileID,
				ProfileName: d.ProfileName,
				Changes:     []Entry{},
			})
		}
		doc.Profiles[i].Changes = append(doc.Profiles[i].Changes, Entry{
			Field:       d.Field,
			Before:      d.OldValue,
			After:       d.NewValue,
			Rule:        d.Category,
			Description: d.Description,
		})
	}
	return doc, nil
}

// Marshal renders doc as indented JSON.
func Marshal(doc Document) ([]byte, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("marshal manifest: %w", err))
	}
	return b, nil
}
