package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fypquiz_backend/internal/util"
	"fypquiz_backend/pkg/logger"
	"fypquiz_backend/pkg/monitoring"
	"fypquiz_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Extraction 上传文件抽取出的纯文本
type Extraction struct {
	Text      string  `json:"text"`
	Kind      string  `json:"kind"`
	WordCount int     `json:"wordCount"`
	Duration  float64 `json:"duration,omitempty"` // 视频时长（秒）
}

type ExtractionService struct {
	transcriber Transcriber
	tempDir     string

	// 外部命令，测试中替换
	pdfToText    func(ctx context.Context, path string) (string, error)
	probeMedia   func(path string) (*util.MediaInfo, error)
	extractAudio func(ctx context.Context, videoPath, audioPath string) error
}

func NewExtractionService(transcriber Transcriber, tempDir string) *ExtractionService {
	return &ExtractionService{
		transcriber:  transcriber,
		tempDir:      tempDir,
		pdfToText:    util.PDFToText,
		probeMedia:   util.ProbeMedia,
		extractAudio: util.ExtractAudioTrack,
	}
}

// Extract 按 MIME 类型把上传内容转成纯文本
func (s *ExtractionService) Extract(ctx context.Context, filename, mimeType string, data []byte) (*Extraction, error) {
	kind := extractionKind(mimeType)
	ctx, span := tracing.StartSpan(ctx, "extraction.extract",
		attribute.String("kind", kind),
		attribute.Int("bytes", len(data)),
	)

	var (
		res *Extraction
		err error
	)
	switch kind {
	case "text":
		res, err = s.extractPlainText(data)
	case "pdf":
		res, err = s.extractPDF(ctx, data)
	case "docx":
		res, err = s.extractDOCX(data)
	case "video":
		res, err = s.extractVideo(ctx, filename, data)
	default:
		err = util.NewExtractionError(util.ReasonUnsupported, fmt.Errorf("mime type %q", mimeType))
	}
	tracing.EndSpan(span, err)

	outcome := "ok"
	if err != nil {
		outcome = "failed"
		logger.Log.Warn("Content extraction failed",
			zap.String("file", filename),
			zap.String("mime", mimeType),
			zap.Error(err),
		)
	}
	monitoring.ExtractionCounter.WithLabelValues(kind, outcome).Inc()
	if err != nil {
		return nil, err
	}

	res.Kind = kind
	res.WordCount = len(strings.Fields(res.Text))
	return res, nil
}

func extractionKind(mimeType string) string {
	switch {
	case mimeType == util.MimeText:
		return "text"
	case mimeType == util.MimePDF:
		return "pdf"
	case mimeType == util.MimeDOCX:
		return "docx"
	case util.IsVideo(mimeType):
		return "video"
	default:
		return "unsupported"
	}
}

func (s *ExtractionService) extractPlainText(data []byte) (*Extraction, error) {
	text := util.NormalizeWhitespace(string(data))
	if len(text) < util.MinContentChars {
		return nil, util.NewExtractionError(util.ReasonLowQuality, errors.New("text too short"))
	}
	return &Extraction{Text: text}, nil
}

func (s *ExtractionService) extractPDF(ctx context.Context, data []byte) (*Extraction, error) {
	pdfPath, cleanup, err := s.writeTemp("upload-*.pdf", data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	raw, err := s.pdfToText(ctx, pdfPath)
	if err != nil {
		return nil, util.NewExtractionError(util.ReasonUnreadable, err)
	}
	if err := checkQuality(raw); err != nil {
		return nil, err
	}
	return &Extraction{Text: util.CleanText(raw)}, nil
}

func (s *ExtractionService) extractDOCX(data []byte) (*Extraction, error) {
	raw, err := util.DOCXToText(data)
	if err != nil {
		return nil, util.NewExtractionError(util.ReasonUnreadable, err)
	}
	text := util.NormalizeWhitespace(raw)
	if len(text) < util.MinContentChars {
		return nil, util.NewExtractionError(util.ReasonLowQuality, errors.New("document has no readable text"))
	}
	return &Extraction{Text: text}, nil
}

func (s *ExtractionService) extractVideo(ctx context.Context, filename string, data []byte) (*Extraction, error) {
	if len(data) > util.MaxVideoBytes {
		return nil, util.NewExtractionError(util.ReasonVideoTooLarge, fmt.Errorf("%d bytes", len(data)))
	}
	if s.transcriber == nil {
		return nil, errors.New("no transcriber configured")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".mp4"
	}
	videoPath, cleanupVideo, err := s.writeTemp("video-*"+ext, data)
	if err != nil {
		return nil, err
	}
	defer cleanupVideo()

	info, err := s.probeMedia(videoPath)
	if err != nil {
		return nil, util.NewExtractionError(util.ReasonUnreadable, err)
	}
	if info.Duration > util.MaxVideoSeconds {
		return nil, util.NewExtractionError(util.ReasonVideoTooLong, fmt.Errorf("%.0fs", info.Duration))
	}
	if !info.HasAudio {
		return nil, util.NewExtractionError(util.ReasonNoAudio, nil)
	}

	audioPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".mp3"
	defer os.Remove(audioPath)

	start := time.Now()
	if err := s.extractAudio(ctx, videoPath, audioPath); err != nil {
		return nil, util.NewExtractionError(util.ReasonNoAudio, err)
	}
	logger.Log.Debug("Audio track extracted",
		zap.String("file", filename),
		zap.Duration("took", time.Since(start)),
	)

	transcript, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		if util.IsTimeout(err) {
			return nil, err
		}
		return nil, util.NewExtractionError(util.ReasonTranscription, err)
	}
	transcript = util.NormalizeWhitespace(transcript)
	if len(transcript) < util.MinContentChars {
		return nil, util.NewExtractionError(util.ReasonNoAudio, errors.New("transcript too short"))
	}

	return &Extraction{Text: transcript, Duration: info.Duration}, nil
}

func checkQuality(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < util.MinContentChars {
		return util.NewExtractionError(util.ReasonLowQuality, errors.New("text too short"))
	}
	if ratio := util.ReadableRatio(trimmed); ratio < util.MinReadableRatio {
		return util.NewExtractionError(util.ReasonLowQuality, fmt.Errorf("readable ratio %.2f", ratio))
	}
	return nil
}

// writeTemp 写临时文件，返回的 cleanup 在所有退出路径上删除它
func (s *ExtractionService) writeTemp(pattern string, data []byte) (string, func(), error) {
	dir := s.tempDir
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", nil, err
		}
	}
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logger.Log.Warn("Failed to remove temp file", zap.String("path", path), zap.Error(err))
		}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
