package network

import (
	"fmt"
	"io/ioutil"
	"net/http"
)

func getBasicHeaders() map[string]string {
	return map[string]string{
		"x-amz-id-2":       "ef8yU9AS1ed4OpIszj7UDNEHGran",
		"x-amz-request-id": "318BC8BC143432E5",
		"x-amz-version-id": "3HL4kqtJlcpXroDTDmjVBH40Nrjfkd",
		"Date":             "Wed, 30 May 2018 22:32:00 GMT",
		"ETag":             `"fba9dede5f27731c9771645a39863328"`,
		"Server":           "AmazonS3",
	}
}

// S3PutHandler accepts an S3 PUT and replies as S3 does when
// the object was stored.
func S3PutHandler(w http.ResponseWriter, r *http.Request) {
	ioutil.ReadAll(r.Body)
	r.Body.Close()
	for key, value := range getBasicHeaders() {
		w.Header().Set(key, value)
	}
	w.WriteHeader(http.StatusOK)
}

// S3AccessDeniedHandler replies to any request with a 403.
func S3AccessDeniedHandler(w http.ResponseWriter, r *http.Request) {
	for key, value := range getBasicHeaders() {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusForbidden)
	fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message><RequestId>318BC8BC143432E5</RequestId></Error>`)
}
