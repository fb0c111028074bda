package entities

// Video is one row of the local catalog mirror. Column names follow the
// catalog's wire names so the table reads the same as the remote records.
//
// DataURL is NOT NULL at the storage layer; a video whose payload has not
// been stored remotely yet is kept with an empty string.
type Video struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Title       string  `gorm:"column:title;not null" json:"title"`
	Duration    int64   `gorm:"column:duration;not null" json:"duration"`
	ContentType string  `gorm:"column:contentType;not null" json:"contentType"`
	DataURL     string  `gorm:"column:dataUrl;not null" json:"dataUrl"`
	AvgRating   float64 `gorm:"column:avgRating;not null" json:"avgRating"`
}

func (Video) TableName() string {
	return "videos"
}

// HasData reports whether the remote service holds a payload for the video.
func (v Video) HasData() bool {
	return v.DataURL != ""
}

// VideoSummary is the list projection of a cached video.
type VideoSummary struct {
	ID    int64  `gorm:"column:id" json:"id"`
	Title string `gorm:"column:title" json:"title"`
}
