package models

// AttributeDetail is the full softmax distribution of one attribute dimension,
// returned when an analysis request asks for detail.
type AttributeDetail struct {
	Dimension  string       `json:"dimension"`
	Label      string       `json:"label"`
	Confidence float64      `json:"confidence"`
	Ranked     []LabelScore `json:"ranked"`
}

// LabelScore is one vocabulary label and its probability.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
