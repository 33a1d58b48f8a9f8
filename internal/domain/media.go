package domain

// StreamDescriptor is one downloadable variant of a media item
type StreamDescriptor struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Container string `json:"container,omitempty"`
	Codec     string `json:"codec,omitempty"`
	Bitrate   int64  `json:"bitrate,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Media is the resolved representation of a page URL
type Media struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	PageURL      string             `json:"page_url"`
	ThumbnailURL string             `json:"thumbnail_url,omitempty"`
	DurationMs   float64            `json:"duration_ms,omitempty"`
	StartTimeMs  float64            `json:"start_time_ms,omitempty"`
	Streams      []StreamDescriptor `json:"streams"`
}

// DefaultStream returns the stream used when no explicit selection is made.
// The boolean is false when the media has no streams.
func (m *Media) DefaultStream() (StreamDescriptor, bool) {
	if m == nil || len(m.Streams) == 0 {
		return StreamDescriptor{}, false
	}
	return m.Streams[0], true
}

// StreamIDs lists the ids of all streams, "default" standing in for empty ids
func (m *Media) StreamIDs() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(m.Streams))
	for _, s := range m.Streams {
		if s.ID == "" {
			ids = append(ids, "default")
			continue
		}
		ids = append(ids, s.ID)
	}
	return ids
}
