package util

import (
	"net/http"
	"path/filepath"
	"strings"
)

// ResolveMimeType 结合声明的类型、扩展名和文件头推断上传内容的 MIME 类型
// 浏览器上报的类型不可信，以文件头为准；DOCX 的文件头是 zip，需要靠扩展名区分
func ResolveMimeType(declared, filename string, data []byte) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	sniffed := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(filename))
	declared = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))

	switch {
	case sniffed == MimePDF:
		return MimePDF
	case strings.HasPrefix(sniffed, MimeVideo):
		return sniffed
	case sniffed == MimeZip && (ext == ".docx" || declared == MimeDOCX):
		return MimeDOCX
	case strings.HasPrefix(sniffed, MimeText) && (ext == ".txt" || declared == MimeText || declared == ""):
		return MimeText
	}

	// mp4/mov 等容器的文件头 DetectContentType 不一定识别得出
	if IsVideo(declared) && isVideoExt(ext) {
		return declared
	}
	if declared != "" {
		return declared
	}
	return sniffed
}

// IsVideo 检测是否为视频
func IsVideo(mimeType string) bool {
	return strings.HasPrefix(mimeType, MimeVideo) || mimeType == "application/x-mpegURL"
}

func isVideoExt(ext string) bool {
	for _, e := range AllowedVideoExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
