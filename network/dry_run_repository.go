package network

import (
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/op/go-logging"
	"github.com/satori/go.uuid"
	"sync"
)

// DryRunPolicy is the POLICY datastream content DryRunRepository
// returns for every parent object.
const DryRunPolicy = `<?xml version="1.0" encoding="UTF-8"?>
<Policy xmlns="urn:oasis:names:tc:xacml:1.0:policy" PolicyId="dry-run-policy"
        RuleCombiningAlgId="urn:oasis:names:tc:xacml:1.0:rule-combining-algorithm:first-applicable">
  <Target><Subjects><AnySubject/></Subjects><Resources><AnyResource/></Resources><Actions><AnyAction/></Actions></Target>
  <Rule RuleId="permit-all" Effect="Permit"/>
</Policy>
`

// DryRunRepository stands in for Fedora when the loader runs in dry
// run mode. It synthesizes PIDs, treats every parent object as
// present with a permissive POLICY, and keeps ingested objects in
// memory instead of sending them anywhere.
type DryRunRepository struct {
	objects map[string]*models.FedoraObject
	logger  *logging.Logger
	mutex   sync.RWMutex
}

func NewDryRunRepository(logger *logging.Logger) *DryRunRepository {
	return &DryRunRepository{
		objects: make(map[string]*models.FedoraObject),
		logger:  logger,
	}
}

func (repo *DryRunRepository) NextPID(namespace string) (string, error) {
	return fmt.Sprintf("%s:%s", namespace, uuid.NewV4().String()), nil
}

// GetObject returns the object if it was ingested during this run,
// or an empty placeholder for any other PID.
func (repo *DryRunRepository) GetObject(pid string) (*models.FedoraObject, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	if obj, ok := repo.objects[pid]; ok {
		return obj, nil
	}
	obj := models.NewFedoraObject(pid)
	obj.Label = "Dry run placeholder"
	return obj, nil
}

func (repo *DryRunRepository) IngestObject(obj *models.FedoraObject) (*models.FedoraObject, error) {
	for _, ds := range obj.Datastreams {
		if !ds.HasContent() {
			return nil, fmt.Errorf("Datastream %s of %s has no content", ds.ID, obj.PID)
		}
	}
	repo.mutex.Lock()
	repo.objects[obj.PID] = obj
	repo.mutex.Unlock()
	repo.logger.Info("[DRY RUN] Would have ingested %s with datastreams %v", obj.PID, obj.DatastreamIds())
	return obj, nil
}

func (repo *DryRunRepository) AddDatastream(pid string, ds *models.Datastream) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()
	obj, ok := repo.objects[pid]
	if !ok {
		return ErrObjectNotFound
	}
	return obj.AddDatastream(ds)
}

// GetDatastream returns ingested datastreams, or DryRunPolicy when
// asked for the POLICY of any object that wasn't ingested.
func (repo *DryRunRepository) GetDatastream(pid, dsId string) (*models.Datastream, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	if obj, ok := repo.objects[pid]; ok {
		return obj.FindDatastream(dsId), nil
	}
	if dsId != constants.DsPolicy {
		return nil, nil
	}
	ds := models.NewDatastream(constants.DsPolicy, constants.ControlGroupInline)
	ds.Label = "XACML Policy Stream"
	ds.MimeType = constants.MimeTypeXML
	ds.SetContentFromString(DryRunPolicy)
	return ds, nil
}

// IngestedCount returns the number of objects ingested so far.
func (repo *DryRunRepository) IngestedCount() int {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()
	return len(repo.objects)
}
