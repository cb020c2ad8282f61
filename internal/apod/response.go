package apod

// Response is a single JSON response from the APOD API.
type Response struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Url         string `json:"url"`
	HdUrl       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Explanation string `json:"explanation"`
	Thumbnail   string `json:"thumbnail_url"`
	Copyright   string `json:"copyright"`
	Service     string `json:"service_version"`
}

// IsImage reports whether the entry is a still image with a usable URL.
func (a *Response) IsImage() bool {
	return a.MediaType == "image" && a.Url != ""
}

// ImageURL returns the URL to download, preferring the HD version when hd is set
func (a *Response) ImageURL(hd bool) string {
	if hd && a.HdUrl != "" {
		return a.HdUrl
	}
	return a.Url
}

// Name is used in logs for entries that are skipped
func (a *Response) Name() string {
	if a.Title != "" {
		return a.Title
	}
	return "untitled"
}
