package world

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stellarcache/galaxy/internal/config"
	"github.com/stellarcache/galaxy/internal/syspath"
	"go.uber.org/zap"
)

func repoConfig(t *testing.T) *config.Config {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("no caller")
	}
	root := filepath.Join(filepath.Dir(file), "..", "..")
	cfg := config.Default()
	cfg.Galaxy.NoiseSize = 64
	cfg.Jobs.Workers = 2
	cfg.Data.CustomSystems = filepath.Join(root, "data/yaml/custom_systems.yaml")
	cfg.Data.Factions = filepath.Join(root, "data/yaml/factions.yaml")
	cfg.Data.ScriptsDir = filepath.Join(root, "scripts")
	return cfg
}

func TestBuildLoadsEveryTable(t *testing.T) {
	st, err := Build(context.Background(), repoConfig(t), zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer st.Close()

	if st.CustomSystems < 6 || st.Factions < 6 {
		t.Fatalf("loaded %d custom systems, %d factions", st.CustomSystems, st.Factions)
	}

	sol, err := st.Galaxy.GetStarSystem(syspath.System(0, 0, 0, 0))
	if err != nil {
		t.Fatalf("GetStarSystem: %v", err)
	}
	if sol.Name() != "Sol" {
		t.Fatalf("origin system is %q", sol.Name())
	}
	if sol.Faction() == nil || sol.Faction().Name != "Solar Federation" {
		t.Fatalf("Sol faction = %v", sol.Faction())
	}

	// scripted systems land in their sectors
	found := false
	for _, sys := range st.Galaxy.GetSector(syspath.Sector(0, 0, 1)).Systems {
		if sys.Name == "Wolf 359" {
			found = true
		}
	}
	if !found {
		t.Fatal("Wolf 359 missing from sector 0,0,1")
	}
}

func TestBuildReportsBadTables(t *testing.T) {
	cfg := repoConfig(t)
	cfg.Data.Factions = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := Build(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("missing faction table accepted")
	}

	cfg = repoConfig(t)
	cfg.Galaxy.DensityImage = filepath.Join(t.TempDir(), "missing.png")
	if _, err := Build(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("missing density image accepted")
	}
}
