package network

import (
	"bytes"
	"fmt"
	"github.com/antchfx/xmlquery"
	"github.com/etdloader/etdloader/models"
	"github.com/op/go-logging"
	"github.com/sethgrid/pester"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// FedoraClient talks to the Fedora 3 REST API. Requests that fail
// with a network error or a 5xx response are retried with
// exponential backoff, except object creation, which is not
// idempotent and is sent once.
type FedoraClient struct {
	hostUrl     string
	user        string
	password    string
	httpClient  *pester.Client
	plainClient *http.Client
	logger      *logging.Logger
}

type requester interface {
	Do(*http.Request) (*http.Response, error)
}

// NewFedoraClient returns a client for the Fedora instance at hostUrl,
// which should include the context path, e.g.
// "http://localhost:8080/fedora".
func NewFedoraClient(hostUrl, user, password string, timeout time.Duration, retries int, logger *logging.Logger) *FedoraClient {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 8,
		DisableKeepAlives:   false,
	}
	plainClient := &http.Client{Transport: transport, Timeout: timeout}
	httpClient := pester.NewExtendedClient(plainClient)
	httpClient.Backoff = pester.ExponentialBackoff
	httpClient.MaxRetries = retries + 1
	httpClient.KeepLog = true
	return &FedoraClient{
		hostUrl:    strings.TrimRight(hostUrl, "/"),
		user:       user,
		password:   password,
		httpClient:  httpClient,
		plainClient: plainClient,
		logger:      logger,
	}
}

// BuildUrl returns the full URL for relativeUrl, which should begin
// with a slash.
func (client *FedoraClient) BuildUrl(relativeUrl string, params url.Values) string {
	fullUrl := client.hostUrl + relativeUrl
	if len(params) > 0 {
		fullUrl += "?" + params.Encode()
	}
	return fullUrl
}

// doRequest sends the request, with retries, and returns the response
// body and status code. It returns an error for any status not listed
// in expectedStatus.
func (client *FedoraClient) doRequest(method, absUrl string, body io.Reader, contentType string, expectedStatus ...int) ([]byte, int, error) {
	return client.send(client.httpClient, method, absUrl, body, contentType, expectedStatus...)
}

// doRequestOnce is doRequest without retries.
func (client *FedoraClient) doRequestOnce(method, absUrl string, body io.Reader, contentType string, expectedStatus ...int) ([]byte, int, error) {
	return client.send(client.plainClient, method, absUrl, body, contentType, expectedStatus...)
}

func (client *FedoraClient) send(httpClient requester, method, absUrl string, body io.Reader, contentType string, expectedStatus ...int) ([]byte, int, error) {
	request, err := http.NewRequest(method, absUrl, body)
	if err != nil {
		return nil, 0, err
	}
	request.SetBasicAuth(client.user, client.password)
	request.Header.Add("Accept", "application/xml")
	if contentType != "" {
		request.Header.Add("Content-Type", contentType)
	}
	response, err := httpClient.Do(request)
	if err != nil {
		if retrying, ok := httpClient.(*pester.Client); ok {
			client.logger.Warning("Fedora request log: %s", retrying.LogString())
		}
		return nil, 0, fmt.Errorf("%s %s failed: %v", method, absUrl, err)
	}
	data, err := ioutil.ReadAll(response.Body)
	response.Body.Close()
	if err != nil {
		return nil, response.StatusCode, err
	}
	for _, status := range expectedStatus {
		if response.StatusCode == status {
			return data, response.StatusCode, nil
		}
	}
	return data, response.StatusCode, fmt.Errorf("%s %s returned status %d: %s",
		method, absUrl, response.StatusCode, truncate(string(data), 240))
}

// NextPID asks Fedora for one new PID in namespace.
func (client *FedoraClient) NextPID(namespace string) (string, error) {
	params := url.Values{}
	params.Set("numPIDs", "1")
	params.Set("namespace", namespace)
	params.Set("format", "xml")
	absUrl := client.BuildUrl("/objects/nextPID", params)
	data, _, err := client.doRequest("POST", absUrl, nil, "", http.StatusOK)
	if err != nil {
		return "", err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("Cannot parse nextPID response: %v", err)
	}
	pid := findText(doc, "pid")
	if pid == "" {
		return "", fmt.Errorf("nextPID response contains no pid: %s", truncate(string(data), 240))
	}
	return pid, nil
}

// GetObject returns the object's profile, without datastreams.
func (client *FedoraClient) GetObject(pid string) (*models.FedoraObject, error) {
	params := url.Values{}
	params.Set("format", "xml")
	absUrl := client.BuildUrl("/objects/"+url.PathEscape(pid), params)
	data, status, err := client.doRequest("GET", absUrl, nil, "", http.StatusOK)
	if status == http.StatusNotFound {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Cannot parse profile of %s: %v", pid, err)
	}
	obj := models.NewFedoraObject(pid)
	obj.Label = findText(doc, "objLabel")
	obj.OwnerId = findText(doc, "objOwnerId")
	if state := findText(doc, "objState"); state != "" {
		obj.State = state
	}
	return obj, nil
}

// IngestObject creates the object, then adds its datastreams in
// order. If any datastream fails, the object is purged so that
// Fedora never holds a partial deposit.
func (client *FedoraClient) IngestObject(obj *models.FedoraObject) (*models.FedoraObject, error) {
	params := url.Values{}
	params.Set("label", obj.Label)
	params.Set("state", obj.State)
	if obj.OwnerId != "" {
		params.Set("ownerId", obj.OwnerId)
	}
	absUrl := client.BuildUrl("/objects/"+url.PathEscape(obj.PID), params)
	data, _, err := client.doRequestOnce("POST", absUrl, nil, "", http.StatusCreated)
	if err != nil {
		return nil, err
	}
	if pid := strings.TrimSpace(string(data)); pid != "" && pid != obj.PID {
		return nil, fmt.Errorf("Fedora created %s when we asked for %s", pid, obj.PID)
	}
	for _, ds := range obj.Datastreams {
		if err = client.AddDatastream(obj.PID, ds); err != nil {
			if purgeErr := client.PurgeObject(obj.PID); purgeErr != nil {
				return nil, fmt.Errorf("%v; partial object was not purged: %v", err, purgeErr)
			}
			client.logger.Warning("Purged partial object %s", obj.PID)
			return nil, err
		}
	}
	client.logger.Info("Ingested %s with %d datastreams", obj.PID, len(obj.Datastreams))
	return obj, nil
}

// PurgeObject removes the object and all of its datastreams.
func (client *FedoraClient) PurgeObject(pid string) error {
	params := url.Values{}
	params.Set("logMessage", "Purged after failed ingest")
	absUrl := client.BuildUrl("/objects/"+url.PathEscape(pid), params)
	_, _, err := client.doRequest("DELETE", absUrl, nil, "", http.StatusOK, http.StatusNoContent)
	if err != nil {
		return fmt.Errorf("Cannot purge %s: %v", pid, err)
	}
	return nil
}

// AddDatastream adds ds to the object with the specified PID.
func (client *FedoraClient) AddDatastream(pid string, ds *models.Datastream) error {
	params := url.Values{}
	params.Set("controlGroup", ds.ControlGroup)
	params.Set("dsLabel", ds.Label)
	params.Set("mimeType", ds.MimeType)
	params.Set("dsState", ds.State)
	params.Set("versionable", strconv.FormatBool(ds.Versionable))
	if ds.ChecksumType != "" {
		params.Set("checksumType", ds.ChecksumType)
	}
	if ds.Checksum != "" {
		params.Set("checksum", ds.Checksum)
	}
	var body io.Reader
	if ds.HasFileContent() {
		file, err := os.Open(ds.ContentPath)
		if err != nil {
			return fmt.Errorf("Cannot read content of %s: %v", ds.ID, err)
		}
		defer file.Close()
		body = file
	} else {
		body = strings.NewReader(ds.Content)
	}
	relativeUrl := fmt.Sprintf("/objects/%s/datastreams/%s", url.PathEscape(pid), url.PathEscape(ds.ID))
	absUrl := client.BuildUrl(relativeUrl, params)
	_, _, err := client.doRequest("POST", absUrl, body, ds.MimeType, http.StatusCreated)
	if err != nil {
		return fmt.Errorf("Cannot add datastream %s to %s: %v", ds.ID, pid, err)
	}
	client.logger.Debug("Added datastream %s to %s", ds.ID, pid)
	return nil
}

// GetDatastream returns the datastream's profile and content.
// Returns nil and no error if Fedora has no such datastream.
func (client *FedoraClient) GetDatastream(pid, dsId string) (*models.Datastream, error) {
	params := url.Values{}
	params.Set("format", "xml")
	relativeUrl := fmt.Sprintf("/objects/%s/datastreams/%s", url.PathEscape(pid), url.PathEscape(dsId))
	data, status, err := client.doRequest("GET", client.BuildUrl(relativeUrl, params), nil, "", http.StatusOK)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Cannot parse profile of %s/%s: %v", pid, dsId, err)
	}
	ds := models.NewDatastream(dsId, findText(doc, "dsControlGroup"))
	ds.Label = findText(doc, "dsLabel")
	ds.MimeType = findText(doc, "dsMIME")
	ds.ChecksumType = findText(doc, "dsChecksumType")
	ds.Checksum = findText(doc, "dsChecksum")
	if state := findText(doc, "dsState"); state != "" {
		ds.State = state
	}
	content, _, err := client.doRequest("GET", client.BuildUrl(relativeUrl+"/content", nil), nil, "", http.StatusOK)
	if err != nil {
		return nil, err
	}
	ds.SetContentFromString(string(content))
	return ds, nil
}

// findText returns the trimmed text of the first element named
// localName, ignoring namespaces.
func findText(doc *xmlquery.Node, localName string) string {
	node := xmlquery.FindOne(doc, fmt.Sprintf("//*[local-name()='%s']", localName))
	if node == nil {
		return ""
	}
	return strings.TrimSpace(node.InnerText())
}

func truncate(str string, length int) string {
	if len(str) <= length {
		return str
	}
	return str[:length] + "..."
}
