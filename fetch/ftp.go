package fetch

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	// GEOHost serves the GEO tree over anonymous FTP and HTTPS.
	GEOHost = "ftp.ncbi.nlm.nih.gov"

	DefaultFTPTimeout = 30 * time.Second
)

// FTP retrieves files over anonymous FTP. One control connection is opened
// per file and closed together with the returned reader.
type FTP struct {
	// Addr is host:port.
	Addr     string
	User     string
	Password string
	Timeout  time.Duration
}

func NewFTP(host string) *FTP {
	return &FTP{
		Addr:     hostPort(host, "21"),
		User:     "anonymous",
		Password: "anonymous",
		Timeout:  DefaultFTPTimeout,
	}
}

func (f *FTP) String() string {
	return "ftp://" + f.Addr
}

func (f *FTP) Open(ctx context.Context, remotePath string) (io.ReadCloser, error) {
	conn, err := ftp.Dial(f.Addr,
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(f.Timeout),
	)
	if err != nil {
		return nil, err
	}

	if err := conn.Login(f.User, f.Password); err != nil {
		conn.Quit()
		return nil, err
	}

	dir, file := path.Split(path.Join("/", remotePath))
	if dir != "/" {
		if err := conn.ChangeDir(dir); err != nil {
			conn.Quit()
			return nil, err
		}
	}

	resp, err := conn.Retr(file)
	if err != nil {
		conn.Quit()
		return nil, err
	}

	return &ftpReadCloser{Response: resp, conn: conn}, nil
}

// ftpReadCloser finishes the transfer and then ends the session.
type ftpReadCloser struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReadCloser) Close() error {
	err := r.Response.Close()
	if qerr := r.conn.Quit(); err == nil {
		err = qerr
	}

	return err
}
