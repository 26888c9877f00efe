package user

import "time"

// DefaultContentType is recorded when the uploader gave no usable type.
const DefaultContentType = "application/octet-stream"

// Image is an opaque binary payload stored inline with the user.
type Image struct {
	Data        []byte
	ContentType string
}

// NewImage rejects empty payloads. The data slice is retained, not copied.
func NewImage(data []byte, contentType string) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if contentType == "" {
		contentType = DefaultContentType
	}
	return Image{Data: data, ContentType: contentType}, nil
}

// Size returns the payload length in bytes.
func (i Image) Size() int {
	return len(i.Data)
}

// TaskImage is one entry in a user's append-only task image log.
type TaskImage struct {
	Image

	Timestamp time.Time
}

// NewTaskImage stamps img with the given moment.
func NewTaskImage(img Image, at time.Time) TaskImage {
	return TaskImage{Image: img, Timestamp: at}
}
