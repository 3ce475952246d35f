package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeObjectStore answers the handful of S3 calls the report store makes.
type fakeObjectStore struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeObjectStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	bucket := parts[0]
	object := ""
	if len(parts) == 2 {
		object = parts[1]
	}

	switch {
	case object == "" && r.Method == http.MethodHead:
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case object == "" && r.Method == http.MethodPut:
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
			body = decodeAWSChunked(body)
		}
		f.objects[bucket+"/"+object] = body
		f.types[bucket+"/"+object] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodHead:
		data, ok := f.objects[bucket+"/"+object]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

// decodeAWSChunked strips the signed chunk framing minio-go uses for plain-HTTP uploads.
func decodeAWSChunked(body []byte) []byte {
	var out []byte
	for len(body) > 0 {
		header, rest, ok := bytes.Cut(body, []byte("\r\n"))
		if !ok {
			break
		}
		sizeHex, _, _ := bytes.Cut(header, []byte(";"))
		size, err := strconv.ParseInt(string(sizeHex), 16, 64)
		if err != nil || size == 0 || int64(len(rest)) < size {
			break
		}
		out = append(out, rest[:size]...)
		body = bytes.TrimPrefix(rest[size:], []byte("\r\n"))
	}
	return out
}

type ReportStoreTestSuite struct {
	suite.Suite
	fake   *fakeObjectStore
	server *httptest.Server
	store  ReportStore
	ctx    context.Context
}

func (suite *ReportStoreTestSuite) SetupTest() {
	suite.fake = &fakeObjectStore{
		buckets: map[string]bool{},
		objects: map[string][]byte{},
		types:   map[string]string{},
	}
	suite.server = httptest.NewServer(suite.fake)
	endpoint := strings.TrimPrefix(suite.server.URL, "http://")

	store, err := NewMinioService(endpoint, "access", "secret", "simledger-reports", "us-east-1", false)
	require.NoError(suite.T(), err)
	suite.store = store
	suite.ctx = context.Background()
}

func (suite *ReportStoreTestSuite) TearDownTest() {
	suite.server.Close()
}

func TestReportStoreTestSuite(t *testing.T) {
	suite.Run(t, new(ReportStoreTestSuite))
}

func (suite *ReportStoreTestSuite) TestEnsureBucketExists_CreatesMissingBucket() {
	require.NoError(suite.T(), suite.store.EnsureBucketExists(suite.ctx))
	assert.True(suite.T(), suite.fake.buckets["simledger-reports"])

	// second call sees the bucket and does nothing
	require.NoError(suite.T(), suite.store.EnsureBucketExists(suite.ctx))
}

func (suite *ReportStoreTestSuite) TestPing() {
	assert.Error(suite.T(), suite.store.Ping(suite.ctx))

	suite.fake.buckets["simledger-reports"] = true
	assert.NoError(suite.T(), suite.store.Ping(suite.ctx))
}

func (suite *ReportStoreTestSuite) TestPutReport_StoresJSON() {
	object := MonthlyReportObject(2024, time.May)
	err := suite.store.PutReport(suite.ctx, object, []byte(`{"total":3}`))
	require.NoError(suite.T(), err)

	key := "simledger-reports/" + object
	assert.Equal(suite.T(), `{"total":3}`, string(suite.fake.objects[key]))
	assert.Equal(suite.T(), "application/json", suite.fake.types[key])

	exists, err := suite.store.ReportExists(suite.ctx, object)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), exists)
}

func (suite *ReportStoreTestSuite) TestReportExists_Missing() {
	exists, err := suite.store.ReportExists(suite.ctx, MonthlyReportObject(2023, time.January))
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), exists)
}

func (suite *ReportStoreTestSuite) TestGetPresignedURL() {
	url, err := suite.store.GetPresignedURL(suite.ctx, MonthlyReportObject(2024, time.May), time.Hour)
	require.NoError(suite.T(), err)
	assert.Contains(suite.T(), url, "/simledger-reports/reports/2024/05/envios-2024-05.json")
	assert.Contains(suite.T(), url, "X-Amz-Signature=")
}

func TestMonthlyReportObject(t *testing.T) {
	assert.Equal(t, "reports/2024/11/envios-2024-11.json", MonthlyReportObject(2024, time.November))
}
