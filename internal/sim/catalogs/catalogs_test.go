package catalogs

import (
	"testing"
	"testing/fstest"
)

func TestDefault_MatchesShippedConfigs(t *testing.T) {
	def := Default()
	if len(def.Biomes.Order) == 0 || len(def.Structures.Order) == 0 || len(def.Events.Order) == 0 || len(def.Achievements.Order) == 0 {
		t.Fatal("embedded catalogs are empty")
	}
	disk, err := Load("../../../configs")
	if err != nil {
		t.Fatal(err)
	}
	if disk.Biomes.Digest != def.Biomes.Digest || disk.Events.Digest != def.Events.Digest {
		t.Fatal("configs/ drifted from the embedded defaults")
	}
}

func TestLoadFS_RejectsBrokenFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"biomes.yaml": {Data: []byte("- id: [\n")},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatal("expected yaml error")
	}
	if _, err := LoadFS(fstest.MapFS{}); err == nil {
		t.Fatal("expected missing file error")
	}
}
