package workers_test

import (
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/context"
	"github.com/etdloader/etdloader/models"
	"github.com/etdloader/etdloader/network"
	"github.com/etdloader/etdloader/testdata"
	"github.com/etdloader/etdloader/util/logger"
	"github.com/etdloader/etdloader/util/storage"
	"github.com/etdloader/etdloader/util/testutil"
	"github.com/stretchr/testify/require"
	"io/ioutil"
	stdlog "log"
	"os"
	"path/filepath"
	"testing"
)

// testEnv is a loader wired to mocks. The transport serves archives
// out of Root/incoming.
type testEnv struct {
	Root        string
	Context     *context.Context
	Transport   *testutil.MockTransport
	Transformer *testutil.MockTransformer
	JsonLogPath string
}

func (env *testEnv) Incoming() string {
	return filepath.Join(env.Root, "incoming")
}

func (env *testEnv) Cleanup() {
	env.Context.Close()
	os.RemoveAll(env.Root)
}

// AddArchive puts a well-formed archive for submission into the
// incoming directory.
func (env *testEnv) AddArchive(t *testing.T, name string, submission *testdata.Submission, extra ...testutil.ZipEntry) {
	_, err := testutil.MakeETDArchive(env.Incoming(), name, submission, extra...)
	require.Nil(t, err)
}

func testConfig(root string) *models.Config {
	config := &models.Config{
		Mode:                     constants.ModeDryRun,
		ArchivePattern:           "*.zip",
		FileMarker:               "0016",
		PIDNamespace:             "etd",
		OwnerId:                  "etdloader",
		FedoraURL:                "http://localhost:8080/fedora",
		IncomingDirectory:        "incoming",
		ProcessedDirectory:       "processed",
		SkippedDirectory:         "skipped",
		FailedDirectory:          "failed",
		WorkingDirectory:         filepath.Join(root, "work"),
		OpenCollectionPID:        "etd:open",
		EmbargoCollectionPID:     "etd:embargoed",
		EmbargoPolicyParentPID:   "etd:embargo-policy",
		SubmissionToArchivalXSL:  filepath.Join("..", "config", "xsl", "submission_to_mods.xsl"),
		ArchivalToLabelXSL:       filepath.Join("..", "config", "xsl", "mods_to_title.xsl"),
		SplashPageXSL:            filepath.Join("..", "config", "xsl", "splash_page.xsl"),
		PermanentRelsIntTemplate: filepath.Join("..", "config", "templates", "rels_int_permanent.xml"),
		EmbargoRelsIntTemplate:   filepath.Join("..", "config", "templates", "rels_int_embargo.xml"),
		OpenAccessXPath:          "/DISS_submission/DISS_repository/DISS_acceptance",
		EmbargoXPath:             "/DISS_submission/DISS_repository/DISS_delayed_release",
		AuthorXPath:              "/mods:mods/mods:name[mods:role/mods:roleTerm='author']/mods:namePart",
		XPathNamespaces:          map[string]string{"mods": "http://www.loc.gov/mods/v3"},
		ThumbnailSize:            "200x200",
		PreviewSize:              "500x700",
		TransportType:            constants.TransportFTP,
		Workers:                  1,
		ReportFile:               filepath.Join(root, "report.txt"),
	}
	return config
}

// newTestEnv returns a dry run loader that uses mocks for the
// transport, the XSLT processor and the external tools.
func newTestEnv(t *testing.T) *testEnv {
	root, err := ioutil.TempDir("", "etd_workers_test")
	require.Nil(t, err)
	require.Nil(t, os.MkdirAll(filepath.Join(root, "incoming"), 0755))
	require.Nil(t, os.MkdirAll(filepath.Join(root, "work"), 0755))

	recordDB, err := storage.NewBoltDB(filepath.Join(root, "history.db"))
	require.Nil(t, err)
	jsonLogPath := filepath.Join(root, "etd_load.json")
	jsonLogFile, err := os.Create(jsonLogPath)
	require.Nil(t, err)

	log := logger.DiscardLogger("workers_test")
	transport := testutil.NewMockTransport(root)
	transformer := testutil.NewMockTransformer()
	_context := &context.Context{
		Config:      testConfig(root),
		MessageLog:  log,
		JsonLog:     stdlog.New(jsonLogFile, "", 0),
		Transport:   transport,
		Repository:  network.NewDryRunRepository(log),
		Transformer: transformer,
		Toolkit:     testutil.NewMockToolkit(),
		RecordDB:    recordDB,
	}
	return &testEnv{
		Root:        root,
		Context:     _context,
		Transport:   transport,
		Transformer: transformer,
		JsonLogPath: jsonLogPath,
	}
}

// embargoedSubmission has no open access agreement and a delayed
// release date.
func embargoedSubmission() *testdata.Submission {
	submission := testdata.MakeSubmission()
	submission.OpenAccess = ""
	submission.DelayedRelease = "2030-06-01 00:00:00"
	return submission
}

var openAccessDatastreams = []string{
	constants.DsMODS,
	constants.DsArchivalXML,
	constants.DsArchivalPDF,
	constants.DsPDF,
	constants.DsFullText,
	constants.DsThumbnail,
	constants.DsPreview,
	constants.DsRelsExt,
	constants.DsPolicy,
}
