package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/tuning"
)

const Version = 1

// Header is the first JSON line of the decompressed stream so
// tools can list saves without decoding the body.
type Header struct {
	Version int    `json:"version"`
	GameID  string `json:"game_id"`
	Turn    int    `json:"turn"`
	Phase   string `json:"phase"`
	Players int    `json:"players"`
	Winner  int    `json:"winner"`
	Digest  string `json:"digest"`
	SavedAt string `json:"saved_at"`
}

// CatalogDigests pins the catalogs a save was produced with.
type CatalogDigests struct {
	Biomes       string `json:"biomes"`
	Structures   string `json:"structures"`
	Events       string `json:"events"`
	Achievements string `json:"achievements"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed     int64          `json:"seed"`
	RNG      []byte         `json:"rng"`
	Seq      uint64         `json:"seq"`
	Tuning   tuning.Tuning  `json:"tuning"`
	Catalogs CatalogDigests `json:"catalogs"`

	State *model.GameState `json:"state"`
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if snap.State == nil {
		return fmt.Errorf("snapshot %s: nil state", path)
	}
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	if snap.Header.SavedAt == "" {
		snap.Header.SavedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		return err
	}
	if _, err = bw.Write(hb); err != nil {
		return err
	}
	if err = bw.WriteByte('\n'); err != nil {
		return err
	}
	if err = json.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	if err = bw.Flush(); err != nil {
		return err
	}
	if err = enc.Close(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := json.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	if snap.State == nil {
		return snap, fmt.Errorf("snapshot %s has no state", path)
	}
	return snap, nil
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
