package fetch

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/carbocation/geopipe"
	"google.golang.org/api/option"
)

// DefaultSource is the anonymous FTP endpoint of NCBI GEO.
const DefaultSource = "ftp://" + GEOHost

// NewRetriever picks a Retriever from the scheme of source: ftp://, http://,
// https://, gs://, or a plain (possibly ~-prefixed) local directory.
func NewRetriever(ctx context.Context, source string, gsOpts ...option.ClientOption) (Retriever, error) {
	switch {
	case strings.HasPrefix(source, "gs://"):
		gs, err := NewGoogleStorage(ctx, source, gsOpts...)
		if err != nil {
			return nil, err
		}
		return gs, nil
	case strings.HasPrefix(source, "ftp://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, err
		}
		if u.Host == "" {
			return nil, fmt.Errorf("no host in %s", source)
		}
		f := NewFTP(u.Host)
		if u.User != nil {
			f.User = u.User.Username()
			if pw, ok := u.User.Password(); ok {
				f.Password = pw
			}
		}
		return f, nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return NewHTTP(source), nil
	case strings.Contains(source, "://"):
		return nil, fmt.Errorf("unsupported source %s", source)
	}

	return &Local{Root: geopipe.ExpandHome(source)}, nil
}

// hostPort adds defaultPort to host unless it already names a port.
func hostPort(host, defaultPort string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}

	return net.JoinHostPort(host, defaultPort)
}
