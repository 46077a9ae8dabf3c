package service

import (
	"strings"
	"time"

	"fypquiz_backend/internal/model"
)

const (
	secondsPerWord = 300 * time.Millisecond
	minRevealTime  = 2 * time.Second

	// AnswerRevealDelay 朗读结束后到显示选项的间隔
	AnswerRevealDelay = time.Second
)

// EstimatedDuration 无法得到音频时长时按字数估算朗读时间
func EstimatedDuration(words int) time.Duration {
	return max(minRevealTime, time.Duration(words)*secondsPerWord)
}

// RevealSchedule 逐词显示题干的节奏
type RevealSchedule struct {
	Words    []string      `json:"-"`
	Total    time.Duration `json:"-"`
	Interval time.Duration `json:"-"`
}

// NewRevealSchedule duration 为 0 时使用估算时长
func NewRevealSchedule(text string, duration time.Duration) RevealSchedule {
	words := strings.Fields(text)
	if duration <= 0 {
		duration = EstimatedDuration(len(words))
	}
	var interval time.Duration
	if len(words) > 0 {
		interval = duration / time.Duration(len(words))
	}
	return RevealSchedule{Words: words, Total: duration, Interval: interval}
}

// VisibleWords elapsed 时刻应显示的词数，单调不减且不超过总词数
func (r RevealSchedule) VisibleWords(elapsed time.Duration) int {
	if len(r.Words) == 0 || elapsed <= 0 {
		return 0
	}
	if r.Interval <= 0 || elapsed >= r.Total {
		return len(r.Words)
	}
	return min(len(r.Words), int(elapsed/r.Interval))
}

func (r RevealSchedule) VisibleText(elapsed time.Duration) string {
	return strings.Join(r.Words[:r.VisibleWords(elapsed)], " ")
}

// ProgressPercent 播放进度百分比，限制在 [0, 100]
func ProgressPercent(position, duration float64) float64 {
	if duration <= 0 || position <= 0 {
		return 0
	}
	p := position / duration * 100
	if p > 100 {
		return 100
	}
	return p
}

// AnswersVisibleAt 选项可显示的时间点：朗读结束或跳过后再等 AnswerRevealDelay。
// 没有音频时立即显示；有音频但尚未结束时返回 false
func AnswersVisibleAt(n model.NarrationState, hasAudio bool) (time.Time, bool) {
	if !hasAudio {
		return time.Time{}, true
	}
	end, ok := n.Ended()
	if !ok {
		return time.Time{}, false
	}
	return end.Add(AnswerRevealDelay), true
}

// AnswersVisible 选项在 now 时刻是否可见
func AnswersVisible(n model.NarrationState, hasAudio bool, now time.Time) bool {
	at, ok := AnswersVisibleAt(n, hasAudio)
	if !ok {
		return false
	}
	return !now.Before(at)
}
