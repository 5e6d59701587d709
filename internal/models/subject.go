package models

import "fmt"

// Subject is one visual identity to animate.
type Subject struct {
	Name   string `yaml:"name" json:"name"`
	Frame  string `yaml:"frame" json:"frame"`
	Face   string `yaml:"face" json:"face"`
	Width  int    `yaml:"w" json:"w"`
	Height int    `yaml:"h" json:"h"`
}

// Resolution formats the output size as WxH.
func (s Subject) Resolution() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Item is one subject paired with one audio file.
type Item struct {
	Index   int     `json:"index"`
	Subject Subject `json:"subject"`
	Audio   string  `json:"audio"`
}

// Items returns the cross product in batch order: subjects outer, audio inner.
// Index is 1-based.
func Items(subjects []Subject, audioFiles []string) []Item {
	out := make([]Item, 0, len(subjects)*len(audioFiles))
	for _, s := range subjects {
		for _, a := range audioFiles {
			out = append(out, Item{Index: len(out) + 1, Subject: s, Audio: a})
		}
	}
	return out
}
