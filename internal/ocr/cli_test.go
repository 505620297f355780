package ocr

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/platinummonkey/ocrpick/internal/logger"
)

// fakeTesseract writes a shell script that mimics the tesseract CLI:
// it echoes its options for text output, prints a fixed TSV for the tsv
// config, and fails when the image contains the word FAIL.
func fakeTesseract(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tesseract script requires a POSIX shell")
	}

	script := `#!/bin/sh
img="$1"
if grep -q FAIL "$img"; then
  echo "Error in pixReadMem: Unknown format" >&2
  exit 1
fi
last=""
for a in "$@"; do last="$a"; done
if [ "$last" = "tsv" ]; then
  printf 'level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n'
  printf '1\t1\t0\t0\t0\t0\t0\t0\t10\t10\t-1\t\n'
  printf '5\t1\t1\t1\t1\t1\t0\t0\t5\t5\t91.5\tHello\n'
  exit 0
fi
shift 2
echo "  args:$* prefix:$TESSDATA_PREFIX  "
`
	path := filepath.Join(t.TempDir(), "tesseract")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake tesseract: %v", err)
	}
	return path
}

func TestCLI_Recognize(t *testing.T) {
	engine := NewCLI(&Options{
		TesseractPath:  fakeTesseract(t),
		TessdataPrefix: "/data/tessdata",
		Logger:         logger.NewNop(),
	})

	text, err := engine.Recognize(context.Background(), []byte("png"), "eng+ara", Params{
		EngineMode:  OEMLSTM,
		PageSegMode: PSMSingleBlock,
	})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if !strings.Contains(text, "args:-l eng+ara --oem 1 --psm 6") {
		t.Errorf("unexpected args in output: %q", text)
	}
	if !strings.Contains(text, "prefix:/data/tessdata") {
		t.Errorf("TESSDATA_PREFIX not passed to child: %q", text)
	}
	if !strings.HasPrefix(text, "  ") {
		t.Errorf("engine output should be returned untrimmed, got %q", text)
	}
}

func TestCLI_RecognizeFailure(t *testing.T) {
	engine := NewCLI(&Options{TesseractPath: fakeTesseract(t), Logger: logger.NewNop()})

	_, err := engine.Recognize(context.Background(), []byte("FAIL"), "eng", Params{})
	if err == nil {
		t.Fatal("expected error from failing tesseract")
	}
	if !strings.Contains(err.Error(), "Unknown format") {
		t.Errorf("error should carry stderr, got %v", err)
	}
}

func TestCLI_MissingBinary(t *testing.T) {
	engine := NewCLI(&Options{TesseractPath: filepath.Join(t.TempDir(), "missing"), Logger: logger.NewNop()})

	if _, err := engine.Recognize(context.Background(), []byte("png"), "eng", Params{}); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestCLI_Tokens(t *testing.T) {
	engine := NewCLI(&Options{TesseractPath: fakeTesseract(t), Logger: logger.NewNop()})

	tokens, err := engine.Tokens(context.Background(), []byte("png"), "eng")
	if err != nil {
		t.Fatalf("Tokens() error = %v", err)
	}

	if len(tokens) != 2 {
		t.Fatalf("len(tokens) = %d, want 2", len(tokens))
	}
	if tokens[0].Confidence != ConfidenceUnknown {
		t.Errorf("tokens[0].Confidence = %d, want %d", tokens[0].Confidence, ConfidenceUnknown)
	}
	if tokens[1] != (Token{Text: "Hello", Confidence: 91}) {
		t.Errorf("tokens[1] = %+v", tokens[1])
	}
}

func TestCLI_CancelledContext(t *testing.T) {
	engine := NewCLI(&Options{TesseractPath: fakeTesseract(t), Logger: logger.NewNop()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Recognize(ctx, []byte("png"), "eng", Params{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
