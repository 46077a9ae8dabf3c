package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeVideo       = "video/"
	MimeAudioMPEG   = "audio/mpeg"
	MimePDF         = "application/pdf"
	MimeText        = "text/plain"
	MimeDOCX        = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeZip         = "application/zip"
	MimeOctetStream = "application/octet-stream"
)

const (
	MinContentChars    = 50
	MinReadableRatio   = 0.3
	MaxVideoBytes      = 200 * 1024 * 1024
	MaxVideoSeconds    = 600
	MinQuestions       = 5
	MaxQuestions       = 50
	ChoicesPerQuestion = 4
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm"}
)
