package model

// Position is a bounding box in percent of the image, each value 0-100.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Segment is one detected text region and its translation.
type Segment struct {
	Position   Position `json:"position"`
	Original   string   `json:"original"`
	Translated string   `json:"translated"`
}

type ImageTranslationResult struct {
	Segments []Segment `json:"segments"`
}

type TranslateImageRequest struct {
	TargetLanguage string `form:"targetLanguage" validate:"omitempty,min=2,max=64"`
}
