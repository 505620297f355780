package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/platinummonkey/ocrpick/internal/converter"
	"github.com/platinummonkey/ocrpick/internal/ensemble"
	"github.com/platinummonkey/ocrpick/internal/logger"
	"github.com/platinummonkey/ocrpick/internal/ocr"
	"github.com/platinummonkey/ocrpick/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRasterizer struct {
	pages     [][]byte
	renderErr error
	image     *converter.Image
	imageErr  error

	renderCalls int32
	imageCalls  int32
}

func (f *fakeRasterizer) RenderPages(context.Context, string, int) ([][]byte, error) {
	atomic.AddInt32(&f.renderCalls, 1)
	return f.pages, f.renderErr
}

func (f *fakeRasterizer) LoadImage(string) (*converter.Image, error) {
	atomic.AddInt32(&f.imageCalls, 1)
	return f.image, f.imageErr
}

type fakeTextReader struct {
	texts []string
	err   error
}

func (f *fakeTextReader) Name() string { return "fake" }

func (f *fakeTextReader) PageTexts(context.Context, string) ([]string, error) {
	return f.texts, f.err
}

// fakeAnalyzer returns the page image as the best text, after an optional
// per-page delay used to shuffle completion order.
type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  int
	delays map[string]time.Duration
}

func (f *fakeAnalyzer) Process(_ context.Context, image []byte, _ string) ensemble.PageAnalysis {
	f.mu.Lock()
	f.calls++
	delay := f.delays[string(image)]
	f.mu.Unlock()

	time.Sleep(delay)

	return ensemble.PageAnalysis{
		Best:              ensemble.Candidate{Method: ensemble.MethodDefault, Text: string(image), Score: len(image)},
		TotalMethods:      7,
		SuccessfulMethods: 7,
	}
}

func newTestPipeline(t *testing.T, r Rasterizer, tr *fakeTextReader, a PageAnalyzer, workers int) *Pipeline {
	t.Helper()
	cfg := &Config{
		Rasterizer: r,
		Analyzer:   a,
		EngineName: "fake",
		Languages:  "eng+ara",
		DPI:        200,
		Workers:    workers,
		Logger:     logger.NewNop(),
	}
	if tr != nil {
		cfg.TextReader = tr
	}
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Analyzer: &fakeAnalyzer{}})
	assert.ErrorContains(t, err, "rasterizer")

	_, err = New(&Config{Rasterizer: &fakeRasterizer{}})
	assert.ErrorContains(t, err, "analyzer")

	p, err := New(&Config{Rasterizer: &fakeRasterizer{}, Analyzer: &fakeAnalyzer{}})
	require.NoError(t, err)
	assert.Equal(t, "eng", p.languages)
	assert.Equal(t, 300, p.dpi)
	assert.Equal(t, 1, p.workers)
	assert.Equal(t, "none", p.textReader.Name())
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	r := &fakeRasterizer{}
	a := &fakeAnalyzer{}
	p := newTestPipeline(t, r, nil, a, 1)

	for _, path := range []string{"contract.docx", "noext", "archive.PDF.zip"} {
		got, err := p.Process(context.Background(), path)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	}
	_, err := p.Process(context.Background(), "x.docx")
	assert.ErrorContains(t, err, "PDF, JPG, JPEG, PNG, BMP, TIFF, TIF")

	assert.Zero(t, r.renderCalls)
	assert.Zero(t, r.imageCalls)
	assert.Zero(t, a.calls)
}

func TestProcess_Dispatch(t *testing.T) {
	r := &fakeRasterizer{
		pages: [][]byte{[]byte("page one")},
		image: &converter.Image{Data: []byte("image"), Width: 10, Height: 20},
	}
	p := newTestPipeline(t, r, nil, &fakeAnalyzer{}, 1)

	rep, err := p.Process(context.Background(), "/docs/Scan.PDF")
	require.NoError(t, err)
	assert.False(t, rep.IsImage())

	rep, err = p.Process(context.Background(), "/docs/photo.jpeg")
	require.NoError(t, err)
	assert.True(t, rep.IsImage())

	assert.EqualValues(t, 1, r.renderCalls)
	assert.EqualValues(t, 1, r.imageCalls)
}

func TestProcessDocument(t *testing.T) {
	r := &fakeRasterizer{pages: [][]byte{[]byte("one"), []byte("two"), []byte("three")}}
	tr := &fakeTextReader{texts: []string{"first", "second"}}
	p := newTestPipeline(t, r, tr, &fakeAnalyzer{}, 1)

	rep, err := p.ProcessDocument(context.Background(), "lease.pdf")
	require.NoError(t, err)

	info := rep.DocumentInfo
	assert.Equal(t, "lease.pdf", info.SourceFile)
	assert.Equal(t, "fake", info.Engine)
	assert.Equal(t, "eng+ara", info.OCRLanguages)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 200, info.DPI)
	assert.Nil(t, info.ImageSize)
	assert.NotEmpty(t, info.RunID)

	require.Len(t, rep.Pages, 3)
	want := []struct {
		text, pdfText string
	}{{"one", "first"}, {"two", "second"}, {"three", ""}}
	for i, w := range want {
		assert.Equal(t, i+1, rep.Pages[i].PageNumber)
		assert.Equal(t, w.text, rep.Pages[i].OCRAnalysis.Best.Text)
		assert.Equal(t, w.pdfText, rep.Pages[i].OriginalPDFText, "missing trailing text entries are empty")
	}
}

func TestProcessDocument_TextLayerFailureDegrades(t *testing.T) {
	r := &fakeRasterizer{pages: [][]byte{[]byte("one"), []byte("two")}}
	tr := &fakeTextReader{texts: []string{"ignored"}, err: errors.New("xref table broken")}
	p := newTestPipeline(t, r, tr, &fakeAnalyzer{}, 1)

	rep, err := p.ProcessDocument(context.Background(), "scan.pdf")
	require.NoError(t, err)

	require.Len(t, rep.Pages, 2)
	for _, page := range rep.Pages {
		assert.Equal(t, "", page.OriginalPDFText)
		assert.NotEqual(t, ensemble.MethodNone, page.OCRAnalysis.Best.Method)
	}
}

func TestProcessDocument_RasterizationFailureIsFatal(t *testing.T) {
	r := &fakeRasterizer{renderErr: errors.New("poppler not installed")}
	a := &fakeAnalyzer{}
	p := newTestPipeline(t, r, &fakeTextReader{texts: []string{"text"}}, a, 1)

	rep, err := p.ProcessDocument(context.Background(), "scan.pdf")
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, ErrDocumentInput)
	assert.ErrorContains(t, err, "poppler not installed")
	assert.Zero(t, a.calls)
}

func TestProcessDocument_PreservesPageOrderWithWorkers(t *testing.T) {
	var pages [][]byte
	delays := map[string]time.Duration{}
	for i := 1; i <= 8; i++ {
		name := fmt.Sprintf("page-%d", i)
		pages = append(pages, []byte(name))
		delays[name] = time.Duration(9-i) * 5 * time.Millisecond
	}

	a := &fakeAnalyzer{delays: delays}
	p := newTestPipeline(t, &fakeRasterizer{pages: pages}, nil, a, 4)

	rep, err := p.ProcessDocument(context.Background(), "big.pdf")
	require.NoError(t, err)

	require.Len(t, rep.Pages, 8)
	for i, page := range rep.Pages {
		assert.Equal(t, i+1, page.PageNumber)
		assert.Equal(t, fmt.Sprintf("page-%d", i+1), page.OCRAnalysis.Best.Text)
	}
	assert.Equal(t, 8, a.calls)
}

func TestProcessDocument_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestPipeline(t, &fakeRasterizer{pages: [][]byte{[]byte("one")}}, nil, &fakeAnalyzer{}, 1)

	rep, err := p.ProcessDocument(ctx, "scan.pdf")
	assert.Nil(t, rep)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessImage(t *testing.T) {
	r := &fakeRasterizer{image: &converter.Image{Data: []byte("receipt"), Width: 800, Height: 600, Format: "png"}}
	p := newTestPipeline(t, r, nil, &fakeAnalyzer{}, 1)

	rep, err := p.ProcessImage(context.Background(), "receipt.png")
	require.NoError(t, err)

	assert.Equal(t, []int{800, 600}, rep.DocumentInfo.ImageSize)
	assert.Zero(t, rep.DocumentInfo.TotalPages)
	assert.Nil(t, rep.Pages)
	require.NotNil(t, rep.OCRAnalysis)
	assert.Equal(t, "receipt", rep.OCRAnalysis.Best.Text)
}

func TestProcessImage_UnreadableIsFatal(t *testing.T) {
	r := &fakeRasterizer{imageErr: errors.New("failed to decode image")}
	a := &fakeAnalyzer{}
	p := newTestPipeline(t, r, nil, a, 1)

	var rep *report.Report
	assert.NotPanics(t, func() {
		var err error
		rep, err = p.Process(context.Background(), "broken.png")
		assert.ErrorIs(t, err, ErrDocumentInput)
	})
	assert.Nil(t, rep)
	assert.Zero(t, a.calls)
}

func TestAlignTexts(t *testing.T) {
	assert.Equal(t, []string{"", ""}, alignTexts(nil, 2))
	assert.Equal(t, []string{"a", ""}, alignTexts([]string{"a"}, 2))
	assert.Equal(t, []string{"a"}, alignTexts([]string{"a", "b"}, 1))
	assert.Equal(t, []string{}, alignTexts(nil, 0))
}

func TestSupportedFormats(t *testing.T) {
	assert.Equal(t, "PDF, JPG, JPEG, PNG, BMP, TIFF, TIF", SupportedFormats())
}

// scriptedEngine is an ocr.Engine whose recognition output depends only on
// the page-segmentation mode.
type scriptedEngine struct {
	byPSM map[ocr.PageSegMode]string
	fail  bool
}

func (e *scriptedEngine) Name() string { return "scripted" }

func (e *scriptedEngine) Recognize(_ context.Context, image []byte, _ string, params ocr.Params) (string, error) {
	if e.fail {
		return "", errors.New("engine timeout")
	}
	if params.EngineMode != ocr.OEMDefault || params.Whitelist != "" {
		return "", nil
	}
	return e.byPSM[params.PageSegMode] + string(image), nil
}

func (e *scriptedEngine) Tokens(context.Context, []byte, string) ([]ocr.Token, error) {
	if e.fail {
		return nil, errors.New("engine timeout")
	}
	return []ocr.Token{{Text: "Invoice", Confidence: 90}, {Text: "#123", Confidence: 40}}, nil
}

func TestPipeline_WithPageProcessor(t *testing.T) {
	engine := &scriptedEngine{byPSM: map[ocr.PageSegMode]string{
		ocr.PSMDefault:    "Invoice #123, dated 2024-05-01",
		ocr.PSMAuto:       "Invoice 123",
		ocr.PSMSparseText: "",
	}}
	processor, err := ensemble.NewPageProcessor(&ensemble.PageProcessorConfig{Engine: engine, Logger: logger.NewNop()})
	require.NoError(t, err)

	r := &fakeRasterizer{pages: [][]byte{nil, nil}}
	p := newTestPipeline(t, r, &fakeTextReader{texts: []string{"Invoice #123"}}, processor, 2)

	rep, err := p.Process(context.Background(), "invoice.pdf")
	require.NoError(t, err)
	require.Len(t, rep.Pages, 2)

	page := rep.Pages[0]
	assert.Equal(t, "Invoice #123", page.OriginalPDFText)
	assert.Equal(t, ensemble.MethodDefault, page.OCRAnalysis.Best.Method)
	assert.Equal(t, 185, page.OCRAnalysis.Best.Score)
	assert.Equal(t, 7, page.OCRAnalysis.TotalMethods)
	assert.Equal(t, 2, page.OCRAnalysis.SuccessfulMethods)
	assert.Equal(t, 1, page.OCRAnalysis.Confidence.ConfidentWords)
}

func TestPipeline_EngineFailureDoesNotAbort(t *testing.T) {
	processor, err := ensemble.NewPageProcessor(&ensemble.PageProcessorConfig{
		Engine: &scriptedEngine{fail: true},
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)

	r := &fakeRasterizer{image: &converter.Image{Data: []byte("x"), Width: 1, Height: 1}}
	p := newTestPipeline(t, r, nil, processor, 1)

	rep, err := p.Process(context.Background(), "scan.tif")
	require.NoError(t, err)
	assert.Equal(t, ensemble.NoCandidate(), rep.OCRAnalysis.Best)
	assert.Equal(t, "engine timeout", rep.OCRAnalysis.Confidence.Error)
	assert.Equal(t, 0, rep.OCRAnalysis.SuccessfulMethods)
}

func TestPipeline_UnreadableImageFiles(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.png")

	conv := converter.NewWithBackend(nil, logger.NewNop())
	p := newTestPipeline(t, conv, nil, &fakeAnalyzer{}, 1)

	_, err := p.Process(context.Background(), missing)
	assert.ErrorIs(t, err, ErrDocumentInput)

	notImage := filepath.Join(dir, "fake.jpg")
	require.NoError(t, os.WriteFile(notImage, []byte("plain text"), 0644))
	_, err = p.Process(context.Background(), notImage)
	assert.ErrorIs(t, err, ErrDocumentInput)
}
