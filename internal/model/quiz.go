package model

// Question 单选题，固定四个选项
type Question struct {
	Question     string   `json:"question"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
	VoiceScript  string   `json:"voiceScript"`
}

// CorrectChoice 返回正确选项的文本
func (q Question) CorrectChoice() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
		return ""
	}
	return q.Choices[q.CorrectIndex]
}

// NarrationText 语音朗读的文本，优先使用 voiceScript
func (q Question) NarrationText() string {
	if q.VoiceScript != "" {
		return q.VoiceScript + " " + q.Question
	}
	return q.Question
}

// swagger:model Quiz
type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}
