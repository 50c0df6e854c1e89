package network

import (
	"fmt"
	"github.com/jlaffaye/ftp"
	"github.com/op/go-logging"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FTPTransport fetches ETD archives from the vendor's FTP server.
// A single control connection can't carry two commands at once,
// so every call holds the transport's lock.
type FTPTransport struct {
	host    string
	timeout time.Duration
	conn    *ftp.ServerConn
	logger  *logging.Logger
	mutex   sync.Mutex
}

// NewFTPTransport returns a transport for host, which should be in
// host:port format. It does not connect until Login is called.
func NewFTPTransport(host string, timeout time.Duration, logger *logging.Logger) *FTPTransport {
	return &FTPTransport{
		host:    host,
		timeout: timeout,
		logger:  logger,
	}
}

// Login connects to the server and logs in.
func (transport *FTPTransport) Login(user, password string) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	if transport.conn != nil {
		transport.conn.Quit()
		transport.conn = nil
	}
	conn, err := ftp.Dial(transport.host, ftp.DialWithTimeout(transport.timeout))
	if err != nil {
		return fmt.Errorf("Cannot connect to FTP server %s: %v", transport.host, err)
	}
	if err = conn.Login(user, password); err != nil {
		conn.Quit()
		return fmt.Errorf("FTP login as %s failed: %v", user, err)
	}
	transport.conn = conn
	transport.logger.Info("Logged in to %s as %s", transport.host, user)
	return nil
}

func (transport *FTPTransport) connection() (*ftp.ServerConn, error) {
	if transport.conn == nil {
		return nil, fmt.Errorf("Not logged in to FTP server %s", transport.host)
	}
	return transport.conn, nil
}

func (transport *FTPTransport) ChangeDir(dir string) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	conn, err := transport.connection()
	if err != nil {
		return err
	}
	if err = conn.ChangeDir(dir); err != nil {
		return fmt.Errorf("Cannot change to directory %s: %v", dir, err)
	}
	return nil
}

func (transport *FTPTransport) ListFiles(pattern string) ([]string, error) {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	conn, err := transport.connection()
	if err != nil {
		return nil, err
	}
	entries, err := conn.List("")
	if err != nil {
		return nil, fmt.Errorf("Cannot list files: %v", err)
	}
	files := make([]string, 0)
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile {
			continue
		}
		matched, err := filepath.Match(pattern, entry.Name)
		if err != nil {
			return nil, fmt.Errorf("Bad file pattern %s: %v", pattern, err)
		}
		if matched {
			files = append(files, entry.Name)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (transport *FTPTransport) Fetch(localPath, remotePath string) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	conn, err := transport.connection()
	if err != nil {
		return err
	}
	response, err := conn.Retr(remotePath)
	if err != nil {
		return fmt.Errorf("Cannot retrieve %s: %v", remotePath, err)
	}
	defer response.Close()
	outputFile, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("Cannot create %s: %v", localPath, err)
	}
	bytesWritten, err := io.Copy(outputFile, response)
	if err != nil {
		outputFile.Close()
		return fmt.Errorf("Error downloading %s: %v", remotePath, err)
	}
	transport.logger.Debug("Fetched %s (%d bytes) to %s", remotePath, bytesWritten, localPath)
	return outputFile.Close()
}

func (transport *FTPTransport) Move(name, fromDir, toDir string) error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	conn, err := transport.connection()
	if err != nil {
		return err
	}
	from := path.Join(fromDir, name)
	to := path.Join(toDir, name)
	if err = conn.Rename(from, to); err != nil {
		return fmt.Errorf("Cannot move %s to %s: %v", from, to, err)
	}
	return nil
}

func (transport *FTPTransport) Close() error {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	if transport.conn == nil {
		return nil
	}
	err := transport.conn.Quit()
	transport.conn = nil
	return err
}
