package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
)

// DatabaseFormatVersion is bumped on any on-disk layout change; stores of
// other versions are ignored and left on disk for analysis (spec 4.1, 6, 9
// — only the latest version, v13, is implemented).
const DatabaseFormatVersion = 13

const (
	savedDirName = "saved"
	deadSuffix   = "-dead"
	corruptedDir = "corrupted"
)

func versionDir(dbPath string) string {
	return filepath.Join(dbPath, fmt.Sprintf("v%d", DatabaseFormatVersion))
}

func savedDir(dbPath string) string {
	return filepath.Join(versionDir(dbPath), savedDirName)
}

func newWorkingDirName() string {
	return fmt.Sprintf("p%d-%s", os.Getpid(), uuid.NewString())
}

// claimWorkingDir implements the open protocol of spec 4.1 steps 1-2: it
// ensures v<N>/ exists, creates a fresh unique working directory name, and
// attempts to atomically take ownership of any existing saved/ by renaming
// it onto the working directory path. owned reports whether an existing
// database was claimed (true) or this is a fresh database (false).
func claimWorkingDir(dbPath string) (workDir string, owned bool, err error) {
	vdir := versionDir(dbPath)
	if err := os.MkdirAll(vdir, 0o755); err != nil {
		return "", false, wrapErr("claimWorkingDir: mkdir version dir", err)
	}

	workDir = filepath.Join(vdir, newWorkingDirName())
	saved := filepath.Join(vdir, savedDirName)

	if err := os.Rename(saved, workDir); err != nil {
		// No saved/ directory (or rename otherwise failed): fresh database.
		// Create the empty working directory ourselves.
		if mkErr := os.MkdirAll(workDir, 0o755); mkErr != nil {
			return "", false, wrapErr("claimWorkingDir: mkdir working dir", mkErr)
		}
		return workDir, false, nil
	}

	return workDir, true, nil
}

// markDead moves path aside with a "-dead" suffix so the background sweep
// can remove it asynchronously, per spec 4.1 ("*-dead/ — directories marked
// for asynchronous removal"). If path doesn't exist, this is a no-op.
func markDead(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dead := uniqueDeadName(path)
	return os.Rename(path, dead)
}

func uniqueDeadName(path string) string {
	candidate := path + deadSuffix
	for i := 0; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s%s-%d", path, deadSuffix, i)
	}
}

// markCorrupted moves saved/ aside to corrupted/ for diagnostics, first
// moving any prior corrupted/ aside with a -dead suffix (spec 4.1 step 4).
func markCorrupted(dbPath string) error {
	vdir := versionDir(dbPath)
	saved := filepath.Join(vdir, savedDirName)
	corrupted := filepath.Join(vdir, corruptedDir)

	if _, err := os.Stat(corrupted); err == nil {
		if err := markDead(corrupted); err != nil {
			return err
		}
	}

	if _, err := os.Stat(saved); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return os.Rename(saved, corrupted)
}

// releaseWorkingDir implements the close protocol of spec 4.1: rename the
// working directory back to saved/, moving any existing saved/ aside first
// (so the last closer wins). Failures are returned for the caller to log;
// per spec, a failure here just leaves the directory to be discarded on the
// next sweep.
func releaseWorkingDir(dbPath, workDir string) error {
	vdir := versionDir(dbPath)
	saved := filepath.Join(vdir, savedDirName)

	if _, err := os.Stat(saved); err == nil {
		if err := markDead(saved); err != nil {
			return err
		}
	}

	return os.Rename(workDir, saved)
}

// sweepStaleDirectories removes directories under v<N> that are marked
// -dead, or whose p<PID>- prefix names a PID no longer alive on this host
// (spec 4.1 step 6). It never removes saved/, corrupted/, or the caller's
// own workDir.
func sweepStaleDirectories(dbPath, ownWorkDir string) {
	vdir := versionDir(dbPath)
	entries, err := os.ReadDir(vdir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		full := filepath.Join(vdir, name)
		if full == ownWorkDir || name == savedDirName || name == corruptedDir {
			continue
		}

		if strings.HasSuffix(name, deadSuffix) || strings.Contains(name, deadSuffix+"-") {
			_ = os.RemoveAll(full)
			continue
		}

		if pid, ok := pidFromWorkingDirName(name); ok && !pidAlive(pid) {
			_ = os.RemoveAll(full)
		}
	}
}

func pidFromWorkingDirName(name string) (pid int, ok bool) {
	if !strings.HasPrefix(name, "p") {
		return 0, false
	}
	rest := name[1:]
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(rest[:dash])
	if err != nil {
		return 0, false
	}
	return n, true
}

// pidAlive reports whether pid names a live process on this host, by
// sending it signal 0 (a no-op signal used purely to probe existence).
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
