package network

import (
	"errors"
	"github.com/etdloader/etdloader/models"
)

// ErrObjectNotFound is returned by Repository.GetObject when
// the repository has no object with the requested PID.
var ErrObjectNotFound = errors.New("object not found")

// Transport is where the ETD vendor delivers submission packages,
// and where we move them after processing.
type Transport interface {
	Login(user, password string) error
	ChangeDir(dir string) error
	// ListFiles returns the names of files in the current directory
	// that match the glob pattern, in lexical order.
	ListFiles(pattern string) ([]string, error)
	// Fetch copies remotePath, relative to the current directory,
	// to localPath.
	Fetch(localPath, remotePath string) error
	Move(name, fromDir, toDir string) error
	Close() error
}

// Repository is the object store ETDs are deposited into.
type Repository interface {
	// NextPID allocates one new PID in the specified namespace.
	NextPID(namespace string) (string, error)
	// GetObject returns ErrObjectNotFound if there is no such object.
	GetObject(pid string) (*models.FedoraObject, error)
	// IngestObject creates the object and all of its datastreams,
	// in order. If it returns an error, the object is not left in
	// the repository.
	IngestObject(obj *models.FedoraObject) (*models.FedoraObject, error)
	AddDatastream(pid string, ds *models.Datastream) error
	// GetDatastream returns nil and no error if the object exists
	// but has no such datastream.
	GetDatastream(pid, dsId string) (*models.Datastream, error)
}

// Notifier tells downstream services that a record is finished.
type Notifier interface {
	Notify(record *models.ETDRecord) error
	Stop()
}
