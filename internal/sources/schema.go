package sources

import "fmt"

// Document is the JSON shape a remote source must serve.
type Document struct {
	Name      string     `json:"name"`
	Downloads []Download `json:"downloads"`
}

// Download is one release entry inside a source document.
type Download struct {
	Title      string   `json:"title"`
	URIs       []string `json:"uris"`
	FileSize   string   `json:"fileSize"`
	UploadDate string   `json:"uploadDate"`
}

// Validate checks the document against the expected schema. A document
// that fails validation is treated the same as a network failure: the
// source is marked errored and the remote operator is expected to fix it.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("document missing name")
	}
	if d.Downloads == nil {
		return fmt.Errorf("document missing downloads array")
	}
	for i, dl := range d.Downloads {
		if dl.Title == "" {
			return fmt.Errorf("download %d missing title", i)
		}
		if len(dl.URIs) == 0 {
			return fmt.Errorf("download %d (%q) has no uris", i, dl.Title)
		}
		if dl.FileSize == "" {
			return fmt.Errorf("download %d (%q) missing fileSize", i, dl.Title)
		}
		if dl.UploadDate == "" {
			return fmt.Errorf("download %d (%q) missing uploadDate", i, dl.Title)
		}
	}
	return nil
}
