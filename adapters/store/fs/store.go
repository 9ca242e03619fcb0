package storefs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/HMC-Makerspace/BLUEPRINT/blueprint"
)

// Store keeps rendered previews and print spools on the local filesystem.
// Each artifact gets a JSON sidecar carrying its class and content type so
// the retention sweep can decide what to drop without opening the artifact.
type Store struct {
	Root    string
	BaseURL string
	Now     func() time.Time
}

// NewStore creates a filesystem-backed artifact store rooted at root.
func NewStore(root string) *Store {
	return &Store{Root: root, Now: time.Now}
}

// Save writes the artifact to disk via a temp file and rename, then writes
// its sidecar. Partial writes never land under the artifact key.
func (s *Store) Save(ctx context.Context, meta blueprint.ArtifactMeta, r io.Reader) (blueprint.ArtifactRef, error) {
	_ = ctx
	if s == nil {
		return blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindInternal, "artifact store is nil", nil)
	}
	if s.Root == "" {
		return blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindValidation, "artifact root is required", nil)
	}
	if meta.Key == "" {
		return blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(meta.Key)
	if err != nil {
		return blueprint.ArtifactRef{}, err
	}

	dir := filepath.Dir(pathOnDisk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return blueprint.ArtifactRef{}, err
	}

	tmp, err := os.CreateTemp(dir, ".blueprint-*")
	if err != nil {
		return blueprint.ArtifactRef{}, err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return blueprint.ArtifactRef{}, err
	}
	if err := tmp.Sync(); err != nil {
		return blueprint.ArtifactRef{}, err
	}
	if err := tmp.Close(); err != nil {
		return blueprint.ArtifactRef{}, err
	}
	if err := os.Rename(tmp.Name(), pathOnDisk); err != nil {
		return blueprint.ArtifactRef{}, err
	}

	ref := blueprint.ArtifactRef{
		Key:         meta.Key,
		Name:        meta.Name,
		Path:        pathOnDisk,
		URL:         s.artifactURL(meta.Key),
		ContentType: meta.ContentType,
		Class:       meta.Class,
		Bytes:       size,
		CreatedAt:   meta.CreatedAt,
	}
	if ref.Name == "" {
		ref.Name = path.Base(meta.Key)
	}
	if ref.ContentType == "" {
		ref.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = s.now()
	}

	if err := s.writeSidecar(pathOnDisk, ref); err != nil {
		return blueprint.ArtifactRef{}, err
	}
	return ref, nil
}

// Open reads an artifact and its sidecar from disk.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, blueprint.ArtifactRef, error) {
	_ = ctx
	if s == nil {
		return nil, blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindInternal, "artifact store is nil", nil)
	}
	if s.Root == "" {
		return nil, blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindValidation, "artifact root is required", nil)
	}
	if key == "" {
		return nil, blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return nil, blueprint.ArtifactRef{}, err
	}

	file, err := os.Open(pathOnDisk)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, blueprint.ArtifactRef{}, blueprint.NewError(blueprint.KindNotFound, fmt.Sprintf("artifact %q not found", key), err)
		}
		return nil, blueprint.ArtifactRef{}, err
	}

	ref := s.refFromDisk(key, pathOnDisk, file)
	return file, ref, nil
}

// Delete removes an artifact and its sidecar. A missing artifact is not an
// error; a failed removal is, so the retention sweep stops instead of
// reporting a key as removed.
func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	if s == nil {
		return blueprint.NewError(blueprint.KindInternal, "artifact store is nil", nil)
	}
	if s.Root == "" {
		return blueprint.NewError(blueprint.KindValidation, "artifact root is required", nil)
	}
	if key == "" {
		return blueprint.NewError(blueprint.KindValidation, "artifact key is required", nil)
	}

	pathOnDisk, err := s.resolvePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(pathOnDisk); err != nil && !os.IsNotExist(err) {
		return err
	}
	_ = os.Remove(sidecarPath(pathOnDisk))
	return nil
}

// List walks the root and returns a ref for every stored artifact.
func (s *Store) List(ctx context.Context) ([]blueprint.ArtifactRef, error) {
	_ = ctx
	if s == nil {
		return nil, blueprint.NewError(blueprint.KindInternal, "artifact store is nil", nil)
	}
	if s.Root == "" {
		return nil, blueprint.NewError(blueprint.KindValidation, "artifact root is required", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return nil, err
	}

	refs := make([]blueprint.ArtifactRef, 0)
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, sidecarSuffix) || strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		refs = append(refs, s.refFromDisk(key, p, nil))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (s *Store) refFromDisk(key, pathOnDisk string, file *os.File) blueprint.ArtifactRef {
	ref := s.readSidecar(pathOnDisk)
	ref.Key = key
	ref.Path = pathOnDisk
	ref.URL = s.artifactURL(key)
	if ref.Name == "" {
		ref.Name = path.Base(key)
	}
	if ref.ContentType == "" {
		ref.ContentType = mime.TypeByExtension(filepath.Ext(pathOnDisk))
	}
	if ref.Bytes == 0 || ref.CreatedAt.IsZero() {
		info, err := statFile(pathOnDisk, file)
		if err == nil {
			if ref.Bytes == 0 {
				ref.Bytes = info.Size()
			}
			if ref.CreatedAt.IsZero() {
				ref.CreatedAt = info.ModTime()
			}
		}
	}
	return ref
}

func statFile(pathOnDisk string, file *os.File) (fs.FileInfo, error) {
	if file != nil {
		return file.Stat()
	}
	return os.Stat(pathOnDisk)
}

func (s *Store) resolvePath(key string) (string, error) {
	clean := path.Clean("/" + key)
	rel := strings.TrimPrefix(clean, "/")
	if rel == "" || rel == "." {
		return "", blueprint.NewError(blueprint.KindValidation, "invalid artifact key", nil)
	}

	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	target := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) && target != root {
		return "", blueprint.NewError(blueprint.KindValidation, "artifact key escapes root", nil)
	}
	return target, nil
}

func (s *Store) writeSidecar(pathOnDisk string, ref blueprint.ArtifactRef) error {
	// Path and URL are derived on read; the sidecar stays relocatable.
	ref.Path = ""
	ref.URL = ""

	payload, err := json.Marshal(ref)
	if err != nil {
		return err
	}
	dir := filepath.Dir(pathOnDisk)
	tmp, err := os.CreateTemp(dir, ".meta-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(payload); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), sidecarPath(pathOnDisk))
}

func (s *Store) readSidecar(pathOnDisk string) blueprint.ArtifactRef {
	data, err := os.ReadFile(sidecarPath(pathOnDisk))
	if err != nil {
		return blueprint.ArtifactRef{}
	}
	var ref blueprint.ArtifactRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return blueprint.ArtifactRef{}
	}
	return ref
}

func (s *Store) artifactURL(key string) string {
	if s.BaseURL == "" {
		return ""
	}
	return strings.TrimRight(s.BaseURL, "/") + "/" + key
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

const sidecarSuffix = ".meta.json"

func sidecarPath(pathOnDisk string) string {
	return pathOnDisk + sidecarSuffix
}
