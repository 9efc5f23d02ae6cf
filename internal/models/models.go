package models

// Video describes a recorded clip and where its assets live.
type Video struct {
	ID          string `json:"id" bson:"id"`
	Title       string `json:"title" bson:"title"`
	MediaURL    string `json:"mediaUrl" bson:"mediaUrl"`
	ThumbURL    string `json:"thumbUrl" bson:"thumbUrl"`
	PublishedAt int64  `json:"publishedAt" bson:"publishedAt"`
}

// Favorite is a per-device bookmark holding a copy of the video fields taken
// when the favorite was added. The copy is not kept in sync with the video.
type Favorite struct {
	ID          string `json:"id,omitempty" bson:"id,omitempty"`
	UserID      string `json:"userId" bson:"userId"`
	VideoID     string `json:"videoId" bson:"videoId"`
	Title       string `json:"title" bson:"title"`
	ThumbURL    string `json:"thumbUrl" bson:"thumbUrl"`
	MediaURL    string `json:"mediaUrl" bson:"mediaUrl"`
	PublishedAt int64  `json:"publishedAt" bson:"publishedAt"`
}

// Message is an append-only chat entry.
type Message struct {
	UserID    string `json:"userId" bson:"userId"`
	Text      string `json:"text" bson:"text"`
	CreatedAt int64  `json:"createdAt" bson:"createdAt"`
}

// FavoriteFromVideo copies the display fields of v into a favorite owned by userID.
func FavoriteFromVideo(userID string, v Video) Favorite {
	return Favorite{
		UserID:      userID,
		VideoID:     v.ID,
		Title:       v.Title,
		ThumbURL:    v.ThumbURL,
		MediaURL:    v.MediaURL,
		PublishedAt: v.PublishedAt,
	}
}

// Video returns the video view of a favorite.
func (f Favorite) Video() Video {
	id := f.VideoID
	if id == "" {
		id = f.ID
	}
	return Video{
		ID:          id,
		Title:       f.Title,
		MediaURL:    f.MediaURL,
		ThumbURL:    f.ThumbURL,
		PublishedAt: f.PublishedAt,
	}
}

// Upload is the response returned by the upload relay.
type Upload struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}
