package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"fypquiz_backend/internal/util"
)

type fakeTranscriber struct {
	text string
	err  error
	seen string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.seen = audioPath
	return f.text, f.err
}

func newTestExtractor(t *testing.T, tr Transcriber) (*ExtractionService, string) {
	t.Helper()
	dir := t.TempDir()
	return NewExtractionService(tr, dir), dir
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("temp files left behind: %v", names)
	}
}

func assertReason(t *testing.T, err error, reason string) {
	t.Helper()
	var ee *util.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if ee.Reason != reason {
		t.Fatalf("reason = %q, want %q", ee.Reason, reason)
	}
}

func TestExtract_PDFLowReadableRatio(t *testing.T) {
	svc, dir := newTestExtractor(t, nil)
	// 10% readable
	garbage := strings.Repeat("a%%%%%%%%%", 20)
	svc.pdfToText = func(ctx context.Context, path string) (string, error) {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("pdf temp file missing during extraction: %v", err)
		}
		return garbage, nil
	}

	_, err := svc.Extract(context.Background(), "scan.pdf", util.MimePDF, []byte("%PDF-1.4"))
	assertReason(t, err, util.ReasonLowQuality)
	assertDirEmpty(t, dir)
}

func TestExtract_PDFCleansText(t *testing.T) {
	svc, dir := newTestExtractor(t, nil)
	svc.pdfToText = func(ctx context.Context, path string) (string, error) {
		return "Photosynthesis   converts\n\nlight\x0cenergy into chemical energy stored in glucose molecules.", nil
	}

	res, err := svc.Extract(context.Background(), "bio.pdf", util.MimePDF, []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Photosynthesis converts light energy into chemical energy stored in glucose molecules."
	if res.Text != want {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Kind != "pdf" || res.WordCount != 11 {
		t.Fatalf("kind=%s words=%d", res.Kind, res.WordCount)
	}
	assertDirEmpty(t, dir)
}

func TestExtract_PlainTextTooShort(t *testing.T) {
	svc, _ := newTestExtractor(t, nil)
	_, err := svc.Extract(context.Background(), "a.txt", util.MimeText, []byte("too short"))
	assertReason(t, err, util.ReasonLowQuality)
}

func TestExtract_Unsupported(t *testing.T) {
	svc, _ := newTestExtractor(t, nil)
	_, err := svc.Extract(context.Background(), "a.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	assertReason(t, err, util.ReasonUnsupported)
}

func TestExtract_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Mitochondria are the powerhouse</w:t></w:r><w:r><w:t xml:space="preserve"> of the cell.</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>They produce ATP through cellular respiration.</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	zw.Close()

	svc, _ := newTestExtractor(t, nil)
	res, err := svc.Extract(context.Background(), "notes.docx", util.MimeDOCX, buf.Bytes())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Mitochondria are the powerhouse of the cell. They produce ATP through cellular respiration."
	if res.Text != want {
		t.Fatalf("text = %q", res.Text)
	}
}

func TestExtract_VideoTranscribesAndCleansUp(t *testing.T) {
	tr := &fakeTranscriber{text: "Today we are going to learn about the water cycle and how evaporation works."}
	svc, dir := newTestExtractor(t, tr)
	svc.probeMedia = func(path string) (*util.MediaInfo, error) {
		return &util.MediaInfo{Duration: 120, HasAudio: true}, nil
	}
	svc.extractAudio = func(ctx context.Context, videoPath, audioPath string) error {
		return os.WriteFile(audioPath, []byte("mp3"), 0644)
	}

	res, err := svc.Extract(context.Background(), "lecture.mp4", "video/mp4", []byte("fake video"))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Duration != 120 || !strings.HasPrefix(res.Text, "Today we") {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !strings.HasSuffix(tr.seen, ".mp3") {
		t.Fatalf("transcriber got %q", tr.seen)
	}
	assertDirEmpty(t, dir)
}

func TestExtract_VideoFailuresCleanUp(t *testing.T) {
	tests := []struct {
		name   string
		info   util.MediaInfo
		tr     *fakeTranscriber
		reason string
	}{
		{"too long", util.MediaInfo{Duration: 601, HasAudio: true}, &fakeTranscriber{}, util.ReasonVideoTooLong},
		{"no audio stream", util.MediaInfo{Duration: 60}, &fakeTranscriber{}, util.ReasonNoAudio},
		{"short transcript", util.MediaInfo{Duration: 60, HasAudio: true}, &fakeTranscriber{text: "um"}, util.ReasonNoAudio},
		{"transcription error", util.MediaInfo{Duration: 60, HasAudio: true}, &fakeTranscriber{err: errors.New("boom")}, util.ReasonTranscription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, dir := newTestExtractor(t, tt.tr)
			info := tt.info
			svc.probeMedia = func(string) (*util.MediaInfo, error) { return &info, nil }
			svc.extractAudio = func(ctx context.Context, videoPath, audioPath string) error {
				return os.WriteFile(audioPath, []byte("mp3"), 0644)
			}

			_, err := svc.Extract(context.Background(), "clip.mov", "video/quicktime", []byte("v"))
			assertReason(t, err, tt.reason)
			assertDirEmpty(t, dir)
		})
	}
}

func TestExtract_VideoTooLarge(t *testing.T) {
	svc, dir := newTestExtractor(t, &fakeTranscriber{})
	big := make([]byte, util.MaxVideoBytes+1)
	_, err := svc.Extract(context.Background(), "big.mp4", "video/mp4", big)
	assertReason(t, err, util.ReasonVideoTooLarge)
	assertDirEmpty(t, dir)
}

func TestExtract_TranscriptionTimeoutSurfaces(t *testing.T) {
	tr := &fakeTranscriber{err: &util.TimeoutError{Op: "transcription", Limit: "5m0s"}}
	svc, _ := newTestExtractor(t, tr)
	svc.probeMedia = func(string) (*util.MediaInfo, error) { return &util.MediaInfo{Duration: 10, HasAudio: true}, nil }
	svc.extractAudio = func(ctx context.Context, v, a string) error { return nil }

	_, err := svc.Extract(context.Background(), "clip.mp4", "video/mp4", []byte("v"))
	if !util.IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}
