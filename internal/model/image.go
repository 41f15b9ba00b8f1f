package model

// Image is a single voteable picture. It carries no nested contents.
type Image struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Width     int                 `json:"width"`
	Height    int                 `json:"height"`
	MediaType string              `json:"media_type"`
	Tags      map[string][]string `json:"tags,omitempty"`
}

func (i *Image) TargetID() string       { return i.ID }
func (i *Image) TargetType() EntityType { return EntityImage }

func (i *Image) AddScore(delta float64) float64 {
	i.Score += delta
	return i.Score
}
