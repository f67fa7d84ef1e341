package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jakeklinvexgloo/phosra-sub003/internal/config"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/db"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/errors"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/manifest"
	"github.com/jakeklinvexgloo/phosra-sub003/internal/sandbox"
)

// maxManifestFileSize bounds manifest files read by ValidateManifestFile.
const maxManifestFileSize = 8 << 20

// ExportManifestInput contains parameters for the ExportManifest operation.
type ExportManifestInput struct {
	SessionID  string
	SnapshotID string // optional, default: latest committed snapshot
	Path       string // optional file destination
	WriteFile  bool   // write to Path, or ~/.phosra/exports/<provider>-<snapshot>.json when Path is empty
}

// ExportManifestOutput contains the result of the ExportManifest operation.
type ExportManifestOutput struct {
	Manifest manifest.Document `json:"manifest"`
	Path     string            `json:"path,omitempty"`
	Archived bool              `json:"archived"`
}

// ExportManifest builds the change manifest of a committed snapshot.
func ExportManifest(ctx context.Context, env *Env, input ExportManifestInput) (_ *ExportManifestOutput, err error) {
	_, span := tracer.Start(ctx, "ops.ExportManifest")
	defer func() { endSpan(span, err) }()

	sess, err := env.Sessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	st := sess.State()

	var snap sandbox.Snapshot
	var ok bool
	if id := strings.TrimSpace(input.SnapshotID); id != "" {
		snap, ok = st.Snapshot(id)
		if !ok {
			return nil, errors.NewNotFound("snapshot", id)
		}
	} else if snap, ok = st.Latest(); !ok {
		return nil, errors.NewInvalidRequest("session has no committed snapshot")
	}
	span.SetAttributes(attribute.String("session.id", sess.ID), attribute.String("snapshot.id", snap.ID))

	doc, err := manifest.Export(snap)
	if err != nil {
		return nil, err
	}
	out := &ExportManifestOutput{Manifest: doc}
	env.countManifest("inline")

	if input.WriteFile || input.Path != "" {
		path := input.Path
		if path == "" {
			if path, err = defaultManifestPath(doc); err != nil {
				return nil, err
			}
		}
		if err := writeManifestFile(env.Config, path, doc); err != nil {
			return nil, err
		}
		out.Path = path
		env.countManifest("file")
	}

	if env.DB != nil {
		if _, err := archiveDocument(env, sess.ID, doc); err != nil {
			return nil, err
		}
		out.Archived = true
	}
	return out, nil
}

// ValidateManifestFileInput contains parameters for the ValidateManifestFile operation.
type ValidateManifestFileInput struct {
	Path string
}

// ValidateManifestFile reads a manifest file from an allowed directory and
// checks it against the manifest schema and supported versions.
func ValidateManifestFile(env *Env, input ValidateManifestFileInput) (*FetchManifestOutput, error) {
	if err := ValidatePath(input.Path, PathCheckRead, env.Config); err != nil {
		return nil, err
	}
	f, err := openFileNoFollowRead(input.Path)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxManifestFileSize+1))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if len(data) > maxManifestFileSize {
		return nil, errors.NewInvalidRequest("manifest file is too large")
	}
	doc, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}
	return &FetchManifestOutput{Manifest: doc}, nil
}

// archiveSnapshot exports snap and archives it.
func archiveSnapshot(env *Env, sessionID string, snap sandbox.Snapshot) (*db.ManifestRecord, error) {
	doc, err := manifest.Export(snap)
	if err != nil {
		return nil, err
	}
	return archiveDocument(env, sessionID, doc)
}

func archiveDocument(env *Env, sessionID string, doc manifest.Document) (*db.ManifestRecord, error) {
	body, err := manifest.Marshal(doc)
	if err != nil {
		return nil, err
	}
	snapshotAt, err := time.Parse(time.RFC3339, doc.Timestamp)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("manifest timestamp: %w", err))
	}
	rec := &db.ManifestRecord{
		ID:              doc.SnapshotID,
		SessionID:       sessionID,
		Provider:        doc.Provider,
		SchemaVersion:   doc.SchemaVersion,
		SnapshotAt:      snapshotAt.Unix(),
		ExportedAt:      time.Now().Unix(),
		Applied:         doc.Summary.Applied,
		Skipped:         doc.Summary.Skipped,
		PlatformManaged: doc.Summary.PlatformManaged,
		Changes:         doc.Summary.Changes,
		BodyJSON:        string(body),
	}
	if err := db.Insert(env.DB, rec); err != nil {
		return nil, err
	}
	env.countManifest("archive")
	return rec, nil
}

func (env *Env) countManifest(destination string) {
	if env.Metrics != nil {
		env.Metrics.ManifestsTotal.WithLabelValues(destination).Inc()
	}
}

// writeManifestFile writes doc to path through a temp file and an atomic
// rename, so an existing file survives a failed export.
func writeManifestFile(cfg *config.Config, path string, doc manifest.Document) error {
	if err := ValidatePath(path, PathCheckWrite, cfg); err != nil {
		return err
	}
	body, err := manifest.Marshal(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create manifest file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(append(body, '\n')); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close manifest file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("manifest destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize manifest: %w", err))
	}

	success = true
	return nil
}

// defaultManifestPath returns ~/.phosra/exports/<provider>-<snapshot>.json.
func defaultManifestPath(doc manifest.Document) (string, error) {
	dir, err := DefaultExportsDir()
	if err != nil {
		return "", err
	}
	name := SanitizeForFilename(doc.Provider + "-" + doc.SnapshotID)
	return filepath.Join(dir, name+ManifestExt), nil
}
