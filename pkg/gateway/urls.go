package gateway

import "strings"

// DownloadURL builds the attachment URL of a document. No request is made.
// base overrides the endpoint; otherwise the active endpoint is used, or
// the first candidate when nothing is resolved yet.
func (c *Client) DownloadURL(id, base string) string {
	return c.contentURL("download", id, base)
}

// PreviewURL builds the inline-display URL of a document.
func (c *Client) PreviewURL(id, base string) string {
	return c.contentURL("preview", id, base)
}

func (c *Client) contentURL(kind, id, base string) string {
	root := strings.TrimRight(base, "/")
	if root == "" {
		root = c.resolver.Current()
	}
	return root + joinPath("/api", kind, seg(id))
}
