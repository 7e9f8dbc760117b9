package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTP retrieves files from an HTTP(S) mirror of the GEO tree, such as
// https://ftp.ncbi.nlm.nih.gov
type HTTP struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  http.DefaultClient,
	}
}

func (h *HTTP) String() string {
	return h.BaseURL
}

func (h *HTTP) Open(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	url := h.BaseURL + "/" + strings.TrimPrefix(remotePath, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download %s with status code %d", url, resp.StatusCode)
	}

	return resp.Body, nil
}
