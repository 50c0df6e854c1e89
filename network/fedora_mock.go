package network

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"
)

// FedoraMock is an in-memory stand-in for the parts of the Fedora 3
// REST API that FedoraClient uses. Serve it with httptest.NewServer
// in unit tests.
type FedoraMock struct {
	// Objects maps PID to label.
	Objects map[string]string
	// Datastreams maps "pid/dsid" to content.
	Datastreams map[string]string
	// MimeTypes maps "pid/dsid" to mime type.
	MimeTypes map[string]string
	// FailDatastream makes every attempt to add this datastream
	// id fail with a 500.
	FailDatastream string
	// FailPurge makes every DELETE of an object fail with a 500.
	FailPurge bool
	Requests       []string
	nextPid        int
	mutex          sync.Mutex
}

func NewFedoraMock() *FedoraMock {
	return &FedoraMock{
		Objects:     make(map[string]string),
		Datastreams: make(map[string]string),
		MimeTypes:   make(map[string]string),
		Requests:    make([]string, 0),
		nextPid:     1,
	}
}

// AddPolicyParent creates an object with a POLICY datastream.
func (mock *FedoraMock) AddPolicyParent(pid, policy string) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.Objects[pid] = "Policy parent " + pid
	mock.Datastreams[pid+"/POLICY"] = policy
	mock.MimeTypes[pid+"/POLICY"] = "application/xml"
}

func (mock *FedoraMock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	mock.Requests = append(mock.Requests, r.Method+" "+r.URL.Path)
	user, password, ok := r.BasicAuth()
	if !ok || user == "" || password == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/fedora"), "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "objects" && parts[1] == "nextPID" && r.Method == "POST":
		namespace := r.URL.Query().Get("namespace")
		pid := fmt.Sprintf("%s:%d", namespace, mock.nextPid)
		mock.nextPid++
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<pidList xmlns="http://www.fedora.info/definitions/1/0/management/"><pid>%s</pid></pidList>`, pid)
	case len(parts) == 2 && parts[0] == "objects" && r.Method == "GET":
		label, exists := mock.Objects[parts[1]]
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, "Object not found in low-level storage: %s", parts[1])
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<objectProfile xmlns="http://www.fedora.info/definitions/1/0/access/" pid="%s">
  <objLabel>%s</objLabel><objOwnerId>fedoraAdmin</objOwnerId><objState>A</objState>
</objectProfile>`, parts[1], label)
	case len(parts) == 2 && parts[0] == "objects" && r.Method == "POST":
		if _, exists := mock.Objects[parts[1]]; exists {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Object %s already exists", parts[1])
			return
		}
		mock.Objects[parts[1]] = r.URL.Query().Get("label")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, parts[1])
	case len(parts) == 2 && parts[0] == "objects" && r.Method == "DELETE":
		if _, exists := mock.Objects[parts[1]]; !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if mock.FailPurge {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Simulated failure purging %s", parts[1])
			return
		}
		delete(mock.Objects, parts[1])
		for key := range mock.Datastreams {
			if strings.HasPrefix(key, parts[1]+"/") {
				delete(mock.Datastreams, key)
				delete(mock.MimeTypes, key)
			}
		}
		w.WriteHeader(http.StatusOK)
	case len(parts) == 4 && parts[0] == "objects" && parts[2] == "datastreams" && r.Method == "POST":
		if _, exists := mock.Objects[parts[1]]; !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if parts[3] == mock.FailDatastream {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Simulated failure adding %s", parts[3])
			return
		}
		body, _ := ioutil.ReadAll(r.Body)
		key := parts[1] + "/" + parts[3]
		mock.Datastreams[key] = string(body)
		mock.MimeTypes[key] = r.URL.Query().Get("mimeType")
		w.WriteHeader(http.StatusCreated)
	case len(parts) == 4 && parts[0] == "objects" && parts[2] == "datastreams" && r.Method == "GET":
		key := parts[1] + "/" + parts[3]
		if _, exists := mock.Datastreams[key]; !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<datastreamProfile xmlns="http://www.fedora.info/definitions/1/0/management/" pid="%s" dsID="%s">
  <dsLabel>%s</dsLabel><dsState>A</dsState><dsControlGroup>X</dsControlGroup>
  <dsMIME>%s</dsMIME><dsChecksumType>DISABLED</dsChecksumType><dsChecksum>none</dsChecksum>
</datastreamProfile>`, parts[1], parts[3], parts[3], mock.MimeTypes[key])
	case len(parts) == 5 && parts[0] == "objects" && parts[2] == "datastreams" && parts[4] == "content":
		content, exists := mock.Datastreams[parts[1]+"/"+parts[3]]
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, content)
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "FedoraMock does not understand %s %s", r.Method, r.URL.Path)
	}
}

// RequestCount returns the number of requests whose method and
// path equal request, e.g. "POST /fedora/objects/etd:1".
func (mock *FedoraMock) RequestCount(request string) int {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	count := 0
	for _, r := range mock.Requests {
		if r == request {
			count++
		}
	}
	return count
}

// HasObject returns true if the mock holds an object with this PID.
func (mock *FedoraMock) HasObject(pid string) bool {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	_, exists := mock.Objects[pid]
	return exists
}

// DatastreamIds returns the ids of all datastreams stored for pid.
func (mock *FedoraMock) DatastreamIds(pid string) []string {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	ids := make([]string, 0)
	for key := range mock.Datastreams {
		if strings.HasPrefix(key, pid+"/") {
			ids = append(ids, strings.TrimPrefix(key, pid+"/"))
		}
	}
	return ids
}
