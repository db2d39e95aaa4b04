package batch

import (
	"fmt"

	"endorsement/internal/encoder"
)

// Image is the decoded output of one succeeded task.
type Image struct {
	Index    int
	MIMEType string
	Data     []byte
}

// Filename names the image the way downloads and the CLI do, numbering
// tasks from 1: endorsement-01.png, endorsement-02.jpg, ...
func (img Image) Filename() string {
	return fmt.Sprintf("endorsement-%02d%s", img.Index+1, encoder.Extension(img.MIMEType))
}

// DecodeImage returns the image of task index. It fails when the task does
// not exist or has not succeeded.
func (s Snapshot) DecodeImage(index int) (Image, error) {
	task, ok := s.Task(index)
	if !ok {
		return Image{}, fmt.Errorf("batch: task %d out of range", index)
	}
	if task.State != StateSucceeded {
		return Image{}, fmt.Errorf("batch: task %d is %s", index, task.State)
	}
	mime, data, err := encoder.ParseDataURI(task.Src)
	if err != nil {
		return Image{}, fmt.Errorf("batch: task %d: %w", index, err)
	}
	return Image{Index: index, MIMEType: mime, Data: data}, nil
}

// Images decodes every succeeded task in index order.
func (s Snapshot) Images() ([]Image, error) {
	var images []Image
	for _, task := range s.Tasks {
		if task.State != StateSucceeded {
			continue
		}
		img, err := s.DecodeImage(task.Index)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}
