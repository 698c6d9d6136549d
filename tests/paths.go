package tests

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

// OfflineEnv, when set to a non-empty value, prevents any download. Tests
// depending on missing data are then skipped.
const OfflineEnv = "NESCORE_OFFLINE"

func testsDir() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Dir(b)
}

var (
	romsOnce sync.Once
	romsErr  error

	procOnce sync.Once
	procErr  error
)

func ensure(tb testing.TB, dir string, once *sync.Once, errp *error, download func(context.Context, string) error) string {
	tb.Helper()

	once.Do(func() {
		if _, err := os.Stat(dir); !errors.Is(err, fs.ErrNotExist) {
			*errp = err
			return
		}
		if testing.Short() || os.Getenv(OfflineEnv) != "" {
			*errp = fs.ErrNotExist
			return
		}
		tb.Logf("%s not found, downloading it...", dir)
		*errp = download(context.Background(), dir)
	})

	if *errp != nil {
		tb.Skipf("test data unavailable in %s: %v", dir, *errp)
	}
	return dir
}

// RomsPath returns the directory holding the nes-test-roms collection,
// downloading it if needed. The calling test is skipped if the roms are not
// available.
func RomsPath(tb testing.TB) string {
	return ensure(tb, filepath.Join(testsDir(), "nes-test-roms"), &romsOnce, &romsErr,
		func(ctx context.Context, dir string) error {
			return downloadTestRoms(ctx, filepath.Dir(dir))
		})
}

// TomHarteProcTestsPath returns the directory holding one json file per
// opcode of the 6502 single step tests.
func TomHarteProcTestsPath(tb testing.TB) string {
	return ensure(tb, filepath.Join(testsDir(), "tomharte.processor.tests"), &procOnce, &procErr, downloadTomHarteProcTests)
}
