package model

type IntervalBody struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Label string  `json:"label"`
}

type SourceBody struct {
	Kind             string         `json:"kind"`
	ID               string         `json:"id"`
	Intervals        []IntervalBody `json:"intervals"`
	AlignmentError   *float64       `json:"alignment_error,omitempty"`
	ChordProbability *float64       `json:"chord_probability,omitempty"`
	Root             *float64       `json:"root,omitempty"`
	MinMaj           *float64       `json:"minmaj,omitempty"`
	Sevenths         *float64       `json:"sevenths,omitempty"`
	ACEMethod        string         `json:"ace_method,omitempty"`
}

type SongRequestBody struct {
	SongID   string       `json:"song_id"`
	Duration float64      `json:"duration"`
	Sources  []SourceBody `json:"sources"`
}

type SelectedSource struct {
	Kind    string  `json:"kind"`
	ID      string  `json:"id"`
	Quality float64 `json:"quality"`
	Known   bool    `json:"known"`
}

type FuseResponse struct {
	SongID   string           `json:"song_id"`
	Selected []SelectedSource `json:"selected"`
	Fused    []IntervalBody   `json:"fused"`
}

type RankResponse struct {
	SongID  string           `json:"song_id"`
	Ranking []SelectedSource `json:"ranking"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
	Kind  string `json:"kind,omitempty"`
}
