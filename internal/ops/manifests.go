package ops

import (
	"strings"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/db"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/manifest"
)

// ListManifestsInput contains parameters for the ListManifests operation.
type ListManifestsInput struct {
	Provider  string // optional filter
	SessionID string // optional filter
	Limit     int    // default 20, max 100
	Offset    int
}

// ManifestSummary describes one archived manifest without its body.
type ManifestSummary struct {
	SnapshotID      string `json:"snapshot_id"`
	SessionID       string `json:"session_id"`
	Provider        string `json:"provider"`
	SchemaVersion   string `json:"schema_version"`
	SnapshotAt      int64  `json:"snapshot_at"`
	ExportedAt      int64  `json:"exported_at"`
	Applied         int    `json:"applied"`
	Skipped         int    `json:"skipped"`
	PlatformManaged int    `json:"platform_managed"`
	Changes         int    `json:"changes"`
}

// ListManifestsOutput contains the result of the ListManifests operation.
type ListManifestsOutput struct {
	Items      []ManifestSummary `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

// ListManifests lists archived manifests, newest export first.
func ListManifests(env *Env, input ListManifestsInput) (*ListManifestsOutput, error) {
	if env.DB == nil {
		return nil, errNoArchive()
	}
	if input.Offset < 0 {
		return nil, errors.NewInvalidRequest("offset must be >= 0")
	}
	limit := normalizeLimit(input.Limit)
	filters := db.ListFilters{
		Provider:  strings.ToLower(strings.TrimSpace(input.Provider)),
		SessionID: strings.TrimSpace(input.SessionID),
	}

	records, err := db.List(env.DB, filters, limit, input.Offset)
	if err != nil {
		return nil, err
	}
	total, err := db.Count(env.DB, filters)
	if err != nil {
		return nil, err
	}

	items := make([]ManifestSummary, 0, len(records))
	for _, r := range records {
		items = append(items, ManifestSummary{
			SnapshotID:      r.ID,
			SessionID:       r.SessionID,
			Provider:        r.Provider,
			SchemaVersion:   r.SchemaVersion,
			SnapshotAt:      r.SnapshotAt,
			ExportedAt:      r.ExportedAt,
			Applied:         r.Applied,
			Skipped:         r.Skipped,
			PlatformManaged: r.PlatformManaged,
			Changes:         r.Changes,
		})
	}

	return &ListManifestsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  input.Offset,
			HasMore: input.Offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// FetchManifestInput contains parameters for the FetchManifest operation.
type FetchManifestInput struct {
	SnapshotID string
}

// FetchManifestOutput contains one manifest document.
type FetchManifestOutput struct {
	Manifest manifest.Document `json:"manifest"`
}

// FetchManifest returns an archived manifest. The stored body is validated
// against the schema before it is returned.
func FetchManifest(env *Env, input FetchManifestInput) (*FetchManifestOutput, error) {
	if env.DB == nil {
		return nil, errNoArchive()
	}
	id, err := requireID("snapshot_id", input.SnapshotID)
	if err != nil {
		return nil, err
	}
	rec, err := db.GetByID(env.DB, id)
	if err != nil {
		return nil, err
	}
	doc, err := manifest.Parse([]byte(rec.BodyJSON))
	if err != nil {
		return nil, err
	}
	return &FetchManifestOutput{Manifest: doc}, nil
}

// PurgeManifestsInput contains parameters for the PurgeManifests operation.
type PurgeManifestsInput struct {
	OlderThanDays int
}

// PurgeManifestsOutput contains the result of the PurgeManifests operation.
type PurgeManifestsOutput struct {
	Purged int `json:"purged"`
}

// PurgeManifests deletes archived manifests exported more than OlderThanDays ago.
func PurgeManifests(env *Env, input PurgeManifestsInput, now int64) (*PurgeManifestsOutput, error) {
	if env.DB == nil {
		return nil, errNoArchive()
	}
	if input.OlderThanDays <= 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be > 0")
	}
	n, err := db.PurgeBefore(env.DB, now-int64(input.OlderThanDays)*86400)
	if err != nil {
		return nil, err
	}
	return &PurgeManifestsOutput{Purged: n}, nil
}

func errNoArchive() error {
	return errors.NewInvalidRequest("manifest archive is not available")
}
