package integration

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/signintech/gopdf"
)

// buildCLI builds cmd/ocrpick into a temp dir. The default build leaves out
// the cgo tesseract engine.
func buildCLI(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "ocrpick-test")

	cmd := exec.Command("go", "build", "-o", binaryPath, "../cmd/ocrpick")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Failed to build CLI: %v\nOutput: %s", err, output)
	}

	return binaryPath
}

// fakeTesseract writes a script that mimics the tesseract CLI. Called with no
// recognition options it prints an invoice line, with options a shorter
// string, and with the tsv config a two-word TSV.
func fakeTesseract(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tesseract script requires a POSIX shell")
	}

	script := `#!/bin/sh
last=""
for a in "$@"; do last="$a"; done
if [ "$last" = "tsv" ]; then
  printf 'level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n'
  printf '1\t1\t0\t0\t0\t0\t0\t0\t10\t10\t-1\t\n'
  printf '5\t1\t1\t1\t1\t1\t0\t0\t5\t5\t91\tInvoice\n'
  printf '5\t1\t1\t1\t1\t2\t6\t0\t5\t5\t42\t#123,\n'
  exit 0
fi
if [ $# -eq 4 ]; then
  echo "Invoice #123, dated 2024-05-01"
else
  echo "Invoice"
fi
`
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake tesseract: %v", err)
	}
	return path
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
}

func writePDF(t *testing.T, path string, pages int) {
	t.Helper()

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: 612, H: 792}})
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.SetLineWidth(2)
		pdf.Line(72, 100, 540, 100)
	}
	if err := pdf.WritePdf(path); err != nil {
		t.Fatalf("failed to write PDF: %v", err)
	}
}
