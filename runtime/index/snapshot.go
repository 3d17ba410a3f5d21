package index

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/mod/semver"

	"github.com/sgranade/choicescript-vscode-sub001/runtime/parser"
)

// SnapshotVersion is the format version written by WriteSnapshot. Readers
// accept any snapshot with the same major version.
const SnapshotVersion = "v1.0.0"

// ErrSnapshotVersion is returned when a snapshot's format can't be read.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

type snapshotFile struct {
	Version string
	Body    cbor.RawMessage
}

type snapshotBody struct {
	StartupURI   string
	FullyIndexed bool
	Project      ProjectTables
	Documents    map[string]*DocumentIndex
}

// WriteSnapshot encodes the whole index as canonical CBOR, so an unchanged
// index always produces the same bytes.
func (x *ProjectIndex) WriteSnapshot(w io.Writer) error {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	x.mu.RLock()
	body := snapshotBody{
		StartupURI:   x.startupURI,
		FullyIndexed: x.fullyIndexed,
		Project:      x.project,
		Documents:    x.docs,
	}
	data, err := encMode.Marshal(body)
	x.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := encMode.NewEncoder(w).Encode(snapshotFile{Version: SnapshotVersion, Body: data}); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot replaces the index's contents with a snapshot written by
// WriteSnapshot. On error the index is left unchanged.
func (x *ProjectIndex) ReadSnapshot(r io.Reader) error {
	var file snapshotFile
	if err := cbor.NewDecoder(r).Decode(&file); err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	if !semver.IsValid(file.Version) || semver.Major(file.Version) != semver.Major(SnapshotVersion) {
		return fmt.Errorf("%w: got %q, expected %s.x", ErrSnapshotVersion, file.Version, semver.Major(SnapshotVersion))
	}

	var body snapshotBody
	if err := cbor.Unmarshal(file.Body, &body); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if body.Documents == nil {
		body.Documents = make(map[string]*DocumentIndex)
	}
	if body.Project.GlobalVariables == nil {
		body.Project.GlobalVariables = NewSymbolTable()
	}
	if body.Project.Achievements == nil {
		body.Project.Achievements = make(map[string]parser.Achievement)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.startupURI = body.StartupURI
	x.fullyIndexed = body.FullyIndexed
	x.project = body.Project
	x.docs = body.Documents
	return nil
}
