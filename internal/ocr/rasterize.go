package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// PageRenderer turns PDF pages into page images on disk.
type PageRenderer interface {
	// RenderPages rasterizes the whole document (honoring MaxPages) and
	// returns the generated image paths in page order plus a cleanup func.
	RenderPages(ctx context.Context, path string) ([]string, func(), error)
	// RenderPage rasterizes a single 1-based page.
	RenderPage(ctx context.Context, path string, page int) (string, func(), error)
}

// PdftoppmRenderer shells out to pdftoppm, the same way the text layer is
// read through pdftotext.
type PdftoppmRenderer struct {
	Binary   string // if empty -> "pdftoppm"
	DPI      int    // if <= 0 -> 300
	MaxPages int    // 0 = no limit
	Runner   Runner
}

func (r *PdftoppmRenderer) bin() string {
	if r.Binary == "" {
		return "pdftoppm"
	}
	return r.Binary
}

func (r *PdftoppmRenderer) dpi() int {
	if r.DPI <= 0 {
		return 300
	}
	return r.DPI
}

func (r *PdftoppmRenderer) runner() Runner {
	if r.Runner == nil {
		return ExecRunner{}
	}
	return r.Runner
}

func (r *PdftoppmRenderer) RenderPages(ctx context.Context, path string) ([]string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "tp-ocr-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	args := []string{"-r", fmt.Sprintf("%d", r.dpi()), "-png"}
	if r.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", fmt.Sprintf("%d", r.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := r.runner().Run(ctx, r.bin(), args...); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm: %w (%s)", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sortPagePaths(matches)
	if len(matches) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("pdftoppm produced no images")
	}
	return matches, cleanup, nil
}

func (r *PdftoppmRenderer) RenderPage(ctx context.Context, path string, page int) (string, func(), error) {
	if page < 1 {
		return "", nil, fmt.Errorf("page must be >= 1, got %d", page)
	}
	tmpDir, err := os.MkdirTemp("", "tp-roi-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	prefix := filepath.Join(tmpDir, "page")
	p := fmt.Sprintf("%d", page)
	if _, errb, err := r.runner().Run(ctx, r.bin(),
		"-r", fmt.Sprintf("%d", r.dpi()), "-png", "-f", p, "-l", p, path, prefix); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("pdftoppm page %d: %w (%s)", page, err, truncate(string(errb), 512))
	}
	matches, _ := filepath.Glob(prefix + "-*.png")
	if len(matches) == 0 {
		cleanup()
		return "", nil, fmt.Errorf("pdftoppm rendered no image for page %d", page)
	}
	return matches[0], cleanup, nil
}

// sortPagePaths orders pdftoppm output numerically: page-2.png before
// page-10.png, which plain string sorting gets wrong.
func sortPagePaths(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		ni, nj := pageIndex(paths[i]), pageIndex(paths[j])
		if ni != nj {
			return ni < nj
		}
		return paths[i] < paths[j]
	})
}

func pageIndex(path string) int {
	base := filepath.Base(path)
	base = base[:len(base)-len(filepath.Ext(base))]
	i := len(base)
	for i > 0 && base[i-1] >= '0' && base[i-1] <= '9' {
		i--
	}
	n := 0
	for _, c := range base[i:] {
		n = n*10 + int(c-'0')
	}
	return n
}
