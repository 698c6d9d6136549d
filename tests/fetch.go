// Package tests provides access to external test suites: the community NES
// test roms and the Tom Harte single step processor tests. They are
// downloaded on first use and cached next to this file.
package tests

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	testRomsURL     = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`
	procTestsURLfmt = `https://raw.githubusercontent.com/SingleStepTests/65x02/main/nes6502/v1/%02x.json`
)

var httpClient = &http.Client{Timeout: 5 * time.Minute}

func get(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func unzip(zipFile, dest string) (int, error) {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, "nes-test-roms-master", "nes-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return 0, fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, os.ModePerm); err != nil {
				return 0, err
			}
			continue
		}
		if err := extract(f, fpath); err != nil {
			return 0, err
		}
	}
	return len(r.File), nil
}

func extract(f *zip.File, fpath string) error {
	if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func downloadTestRoms(ctx context.Context, dest string) error {
	tmpf, err := os.CreateTemp("", "nes-test-roms-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())

	if err := get(ctx, testRomsURL, tmpf); err != nil {
		tmpf.Close()
		return err
	}
	if err := tmpf.Close(); err != nil {
		return err
	}

	if _, err := unzip(tmpf.Name(), dest); err != nil {
		return fmt.Errorf("failed to decompress test roms: %w", err)
	}
	return nil
}

// download the 256 Tom Harte test files (one per opcode) into dest.
func downloadTomHarteProcTests(ctx context.Context, dest string) error {
	tempdir, err := os.MkdirTemp("", "tom.harte.processor.tests.*")
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for opcode := range 256 {
		g.Go(func() error {
			f, err := os.Create(filepath.Join(tempdir, fmt.Sprintf("%02x.json", opcode)))
			if err != nil {
				return err
			}
			if err := get(ctx, fmt.Sprintf(procTestsURLfmt, opcode), f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		return fmt.Errorf("failed to download all files: %w", err)
	}
	return os.Rename(tempdir, dest)
}
