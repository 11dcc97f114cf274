package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClaimWorkingDirFreshThenClaim(t *testing.T) {
	dbPath := t.TempDir()

	workDir, owned, err := claimWorkingDir(dbPath)
	if err != nil {
		t.Fatalf("claimWorkingDir: %v", err)
	}
	if owned {
		t.Errorf("expected owned=false for a fresh database")
	}
	if _, err := os.Stat(workDir); err != nil {
		t.Fatalf("working dir not created: %v", err)
	}

	if err := releaseWorkingDir(dbPath, workDir); err != nil {
		t.Fatalf("releaseWorkingDir: %v", err)
	}
	if _, err := os.Stat(savedDir(dbPath)); err != nil {
		t.Fatalf("saved dir missing after release: %v", err)
	}

	workDir2, owned2, err := claimWorkingDir(dbPath)
	if err != nil {
		t.Fatalf("claimWorkingDir (2nd): %v", err)
	}
	if !owned2 {
		t.Errorf("expected owned=true when saved/ exists")
	}
	if workDir2 == workDir {
		t.Errorf("expected a fresh unique working dir name")
	}
}

func TestMarkCorruptedPreservesSaved(t *testing.T) {
	dbPath := t.TempDir()

	workDir, _, err := claimWorkingDir(dbPath)
	if err != nil {
		t.Fatalf("claimWorkingDir: %v", err)
	}
	marker := filepath.Join(workDir, "marker")
	if err := os.WriteFile(marker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if err := releaseWorkingDir(dbPath, workDir); err != nil {
		t.Fatalf("releaseWorkingDir: %v", err)
	}

	if err := markCorrupted(dbPath); err != nil {
		t.Fatalf("markCorrupted: %v", err)
	}

	vdir := versionDir(dbPath)
	if _, err := os.Stat(filepath.Join(vdir, corruptedDir, "marker")); err != nil {
		t.Errorf("expected marker preserved under corrupted/: %v", err)
	}
	if _, err := os.Stat(savedDir(dbPath)); !os.IsNotExist(err) {
		t.Errorf("expected saved/ removed after markCorrupted")
	}
}

func TestSweepRemovesDeadAndStalePIDDirs(t *testing.T) {
	dbPath := t.TempDir()
	vdir := versionDir(dbPath)
	if err := os.MkdirAll(vdir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	dead := filepath.Join(vdir, "p1-aaaa-dead")
	if err := os.MkdirAll(dead, 0o755); err != nil {
		t.Fatalf("mkdir dead: %v", err)
	}

	// A PID essentially guaranteed not to be alive.
	stale := filepath.Join(vdir, "p999999-bbbb")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatalf("mkdir stale: %v", err)
	}

	live := filepath.Join(vdir, newWorkingDirName())
	if err := os.MkdirAll(live, 0o755); err != nil {
		t.Fatalf("mkdir live: %v", err)
	}

	sweepStaleDirectories(dbPath, live)

	if _, err := os.Stat(dead); !os.IsNotExist(err) {
		t.Errorf("expected dead dir removed")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("expected stale PID dir removed")
	}
	if _, err := os.Stat(live); err != nil {
		t.Errorf("expected own working dir preserved: %v", err)
	}
}

func TestPidFromWorkingDirName(t *testing.T) {
	pid, ok := pidFromWorkingDirName("p1234-abcd-ef")
	if !ok || pid != 1234 {
		t.Errorf("got (%d, %v), want (1234, true)", pid, ok)
	}
	if _, ok := pidFromWorkingDirName("saved"); ok {
		t.Errorf("expected ok=false for non-pid name")
	}
}
