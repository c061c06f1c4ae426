// Package updater keeps the brainstormd binary current from GitHub
// releases: a best-effort version check during serve, and an explicit
// in-place self-update for the update subcommand. The replace is
// atomic (write beside the executable, then rename over it) and the
// user restarts the server themselves afterwards.
package updater

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const (
	// binaryName is the executable name inside release archives.
	binaryName = "brainstormd"

	// githubRepo is the repository path for API calls.
	githubRepo = "reconstitutechrist-rgb/brainstorm"

	apiTimeout = 10 * time.Second
)

// Overridable in tests.
var (
	releaseEndpoint = "https://api.github.com/repos/" + githubRepo + "/releases/latest"
	httpClient      = &http.Client{Timeout: apiTimeout}
)

// Release is the subset of the GitHub release payload the updater reads.
type Release struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// UpdateResult reports the outcome of a version check.
type UpdateResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateAvailable bool
	ReleaseURL      string
}

// CheckVersion compares the running version against the latest GitHub
// release. It never fails: the check is best-effort and any network or
// API problem reads as "no update available".
func CheckVersion(currentVersion string) *UpdateResult {
	result := &UpdateResult{CurrentVersion: strings.TrimPrefix(currentVersion, "v")}

	release, err := latestRelease(currentVersion)
	if err != nil {
		return result
	}
	result.LatestVersion = strings.TrimPrefix(release.TagName, "v")
	result.ReleaseURL = release.HTMLURL
	result.UpdateAvailable = versionBehind(result.CurrentVersion, result.LatestVersion)
	return result
}

// SelfUpdate downloads the latest release build for this OS and
// architecture and swaps it in for the running executable.
func SelfUpdate(currentVersion string) error {
	release, err := latestRelease(currentVersion)
	if err != nil {
		return fmt.Errorf("checking latest release: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	if !versionBehind(strings.TrimPrefix(currentVersion, "v"), latest) {
		return fmt.Errorf("already at latest version (%s)", currentVersion)
	}

	name := assetName(latest)
	var downloadURL string
	for _, asset := range release.Assets {
		if asset.Name == name {
			downloadURL = asset.BrowserDownloadURL
			break
		}
	}
	if downloadURL == "" {
		return fmt.Errorf("no release asset for %s/%s (expected %s)", runtime.GOOS, runtime.GOARCH, name)
	}

	binary, err := downloadBinary(downloadURL, name)
	if err != nil {
		return err
	}
	return replaceExecutable(binary)
}

// latestRelease fetches the newest release record from the GitHub API.
func latestRelease(currentVersion string) (*Release, error) {
	req, err := http.NewRequest(http.MethodGet, releaseEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", binaryName+"/"+currentVersion)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}
	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("parsing release info: %w", err)
	}
	return &release, nil
}

// downloadBinary fetches the release archive and extracts the binary
// from it, dispatching on the archive extension.
func downloadBinary(url, name string) ([]byte, error) {
	resp, err := http.Get(url) //nolint:gosec // URL comes from the GitHub API
	if err != nil {
		return nil, fmt.Errorf("downloading release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned %d", resp.StatusCode)
	}
	if strings.HasSuffix(name, ".zip") {
		return binaryFromZip(resp.Body)
	}
	return binaryFromTarGz(resp.Body)
}

// binaryFromTarGz streams a .tar.gz archive and returns the bytes of
// the first entry whose base name matches the binary.
func binaryFromTarGz(r io.Reader) ([]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar: %w", err)
		}
		if !isBinaryEntry(header.Name) {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("reading binary from tar: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s binary not found in archive", binaryName)
}

// binaryFromZip buffers the whole archive in memory; zip needs random
// access and release archives are only a few megabytes.
func binaryFromZip(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading zip: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening zip: %w", err)
	}
	for _, f := range zr.File {
		if !isBinaryEntry(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in zip: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading binary from zip: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s binary not found in archive", binaryName)
}

func isBinaryEntry(name string) bool {
	base := filepath.Base(name)
	return base == binaryName || base == binaryName+".exe"
}

// replaceExecutable writes the new binary next to the current one and
// renames it into place. Windows refuses to overwrite a running
// executable, so the old binary is moved aside first.
func replaceExecutable(binary []byte) error {
	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("finding current executable: %w", err)
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return fmt.Errorf("resolving symlinks: %w", err)
	}

	tmpPath := execPath + ".new"
	if err := os.WriteFile(tmpPath, binary, 0o755); err != nil {
		return fmt.Errorf("writing new binary: %w", err)
	}

	if runtime.GOOS == "windows" {
		oldPath := execPath + ".old"
		_ = os.Remove(oldPath)
		if err := os.Rename(execPath, oldPath); err != nil {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("backing up current binary: %w", err)
		}
	}

	if err := os.Rename(tmpPath, execPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing binary: %w", err)
	}
	return nil
}

// assetName is the goreleaser archive name for this platform.
func assetName(version string) string {
	ext := "tar.gz"
	if runtime.GOOS == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("%s_%s_%s_%s.%s", binaryName, version, runtime.GOOS, runtime.GOARCH, ext)
}

// versionBehind reports whether current is strictly behind latest.
// Development builds never report an update.
func versionBehind(current, latest string) bool {
	if current == "" || latest == "" || current == "dev" {
		return false
	}
	a, b := versionParts(current), versionParts(latest)
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// versionParts reads up to three dotted numeric components. Missing
// components read as zero and a trailing non-digit suffix like "rc1"
// is ignored.
func versionParts(v string) [3]int {
	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		n := 0
		for _, r := range part {
			if r < '0' || r > '9' {
				break
			}
			n = n*10 + int(r-'0')
		}
		out[i] = n
	}
	return out
}
