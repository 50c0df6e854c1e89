package testdata

import (
	"bytes"
	"fmt"
	"github.com/etdloader/etdloader/constants"
	"github.com/etdloader/etdloader/models"
	"github.com/icrowley/fake"
	"github.com/satori/go.uuid"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"
)

// Submission describes the DISS_submission metadata document the ETD
// vendor puts in every upload. Empty OpenAccess or DelayedRelease
// leave the matching element out of the document entirely.
type Submission struct {
	Surname        string
	FirstName      string
	MiddleName     string
	Title          string
	Institution    string
	Degree         string
	CompletionYear string
	Abstract       string
	Keywords       []string
	OpenAccess     string
	DelayedRelease string
}

var submissionTemplate = template.Must(template.New("submission").Parse(
	`<?xml version="1.0" encoding="UTF-8"?>
<DISS_submission publishing_option="0" embargo_code="0" third_party_search="N">
  <DISS_authorship>
    <DISS_author type="primary">
      <DISS_name>
        <DISS_surname>{{.Surname}}</DISS_surname>
        <DISS_fname>{{.FirstName}}</DISS_fname>
        <DISS_middle>{{.MiddleName}}</DISS_middle>
      </DISS_name>
    </DISS_author>
  </DISS_authorship>
  <DISS_description page_count="120" type="doctoral">
    <DISS_title>{{.Title}}</DISS_title>
    <DISS_dates><DISS_comp_date>{{.CompletionYear}}</DISS_comp_date></DISS_dates>
    <DISS_degree>{{.Degree}}</DISS_degree>
    <DISS_institution><DISS_inst_name>{{.Institution}}</DISS_inst_name></DISS_institution>
    <DISS_categorization>{{range .Keywords}}
      <DISS_keyword>{{.}}</DISS_keyword>{{end}}
    </DISS_categorization>
  </DISS_description>
  <DISS_content>
    <DISS_abstract><DISS_para>{{.Abstract}}</DISS_para></DISS_abstract>
  </DISS_content>
  <DISS_repository>
    <DISS_version>2011-11-08 15:37:29</DISS_version>{{if .OpenAccess}}
    <DISS_acceptance>{{.OpenAccess}}</DISS_acceptance>{{end}}{{if .DelayedRelease}}
    <DISS_delayed_release>{{.DelayedRelease}}</DISS_delayed_release>{{end}}
  </DISS_repository>
</DISS_submission>
`))

// XML returns the submission as a DISS_submission document.
func (submission *Submission) XML() []byte {
	var buf bytes.Buffer
	escaped := *submission
	escaped.Surname = escape(submission.Surname)
	escaped.FirstName = escape(submission.FirstName)
	escaped.MiddleName = escape(submission.MiddleName)
	escaped.Title = escape(submission.Title)
	escaped.Abstract = escape(submission.Abstract)
	if err := submissionTemplate.Execute(&buf, escaped); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// AuthorName returns the author the way the MODS transform writes it.
func (submission *Submission) AuthorName() string {
	name := fmt.Sprintf("%s, %s", submission.Surname, submission.FirstName)
	if submission.MiddleName != "" {
		name += " " + submission.MiddleName
	}
	return name
}

func escape(str string) string {
	var buf bytes.Buffer
	template.HTMLEscape(&buf, []byte(str))
	return buf.String()
}

// MakeSubmission returns an open access submission with no embargo
// and a random author and title.
func MakeSubmission() *Submission {
	return &Submission{
		Surname:        strings.Replace(fake.LastName(), " ", "", -1),
		FirstName:      fake.FirstName(),
		MiddleName:     fake.FirstName(),
		Title:          fake.Title(),
		Institution:    "University of North Carolina at Chapel Hill",
		Degree:         RandomFromList([]string{"Ph.D.", "M.A.", "M.S.", "Ed.D."}),
		CompletionYear: fmt.Sprintf("%d", 2000+rand.Intn(20)),
		Abstract:       fake.Paragraph(),
		Keywords:       []string{fake.Word(), fake.Word()},
		OpenAccess:     "1",
	}
}

func MakeETDRecord(status string) *models.ETDRecord {
	name := fmt.Sprintf("etdadmin_upload_%d", rand.Intn(900000)+100000)
	record := models.NewETDRecord(name+constants.ArchiveExtension, "/mnt/etd/work/"+name)
	record.Status = status
	record.StartedAt = RandomDateTime()
	if status == constants.StatusScanned {
		return record
	}
	author := fake.LastName()
	record.PDFPath = fmt.Sprintf("%s/%s_0016D_%d.pdf", record.WorkingDirectory, author, rand.Intn(90000)+10000)
	record.MetadataPath = strings.Replace(record.PDFPath, ".pdf", "_DATA.xml", 1)
	if status == constants.StatusProcessed || status == constants.StatusIngested {
		record.PID = RandomPID("etd")
		record.Label = fake.Title()
		record.AuthorName = author + ", " + fake.FirstName()
		record.NormalizedAuthor = author
		record.PDFFileName = author + ".pdf"
		record.MetadataFileName = author + ".xml"
		record.FullTextFileName = author + ".txt"
		record.OpenAccessAvailable = true
		record.OpenAccessValue = "1"
	}
	if status == constants.StatusIngested {
		record.DatastreamsCreated = append(record.DatastreamsCreated, constants.DatastreamIds...)
		record.IngestSucceeded = true
		record.RecordURL = "http://localhost:8080/fedora/objects/" + record.PID
		record.FinishedAt = record.StartedAt.Add(time.Duration(rand.Intn(300)) * time.Second)
	}
	return record
}

func MakeFedoraObject(datastreamCount int) *models.FedoraObject {
	obj := models.NewFedoraObject(RandomPID("etd"))
	obj.Label = fake.Title()
	obj.OwnerId = "fedoraAdmin"
	for i := 0; i < datastreamCount && i < len(constants.DatastreamIds); i++ {
		ds := MakeDatastream(constants.DatastreamIds[i])
		obj.Datastreams = append(obj.Datastreams, ds)
	}
	return obj
}

func MakeDatastream(dsId string) *models.Datastream {
	ds := models.NewDatastream(dsId, constants.ControlGroupManaged)
	ds.Label = fake.Title()
	ds.MimeType = RandomFromList([]string{constants.MimeTypePDF, constants.MimeTypeXML,
		constants.MimeTypeJPEG, constants.MimeTypePlain})
	ds.SetContentFromString(fake.Paragraph())
	return ds
}

func RandomDateTime() time.Time {
	t := time.Now().UTC()
	minutes := rand.Intn(500000) * -1
	return t.Add(time.Duration(minutes) * time.Minute)
}

// RandomEmbargoDate returns a delayed release date the way the
// vendor writes it, with a space between date and time.
func RandomEmbargoDate() string {
	t := time.Now().UTC().AddDate(rand.Intn(3)+1, 0, 0)
	return t.Format("2006-01-02") + " 00:00:00"
}

func RandomPID(namespace string) string {
	return fmt.Sprintf("%s:%s", namespace, uuid.NewV4().String())
}

func RandomStatus() string {
	return RandomFromList(constants.StatusTypes)
}

func RandomFromList(items []string) string {
	i := int(math.Mod(float64(rand.Intn(200)), float64(len(items))))
	return items[i]
}
