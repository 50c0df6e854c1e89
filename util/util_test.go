package util_test

import (
	"github.com/etdloader/etdloader/util"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRecordNameFromArchive(t *testing.T) {
	assert.Equal(t, "etdadmin_upload_362114",
		util.RecordNameFromArchive("/mnt/etd/incoming/etdadmin_upload_362114.zip"))
	assert.Equal(t, "etdadmin_upload_362114",
		util.RecordNameFromArchive("etdadmin_upload_362114.zip"))
	assert.Equal(t, "no_extension", util.RecordNameFromArchive("no_extension"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", util.Extension("Smith_gwu_0016D_123.PDF"))
	assert.Equal(t, "xml", util.Extension("Smith_gwu_0016D_123_DATA.xml"))
	assert.Equal(t, "pdf", util.Extension("thesis_pdf"))
	assert.Equal(t, "ab", util.Extension("AB"))
}

func TestLooksLikeArchive(t *testing.T) {
	assert.True(t, util.LooksLikeArchive("upload.zip"))
	assert.True(t, util.LooksLikeArchive("upload.ZIP"))
	assert.False(t, util.LooksLikeArchive("upload.tar"))
}

func TestHasLegalName(t *testing.T) {
	assert.True(t, util.HasLegalName("Smith_gwu_0016D_123.pdf"))
	assert.False(t, util.HasLegalName("Smith gwu.pdf"))
}

func TestLooksLikeURL(t *testing.T) {
	assert.True(t, util.LooksLikeURL("http://localhost:8080/fedora"))
	assert.True(t, util.LooksLikeURL("https://repository.example.edu/fedora"))
	assert.False(t, util.LooksLikeURL("this is not a url!"))
	assert.False(t, util.LooksLikeURL("ftp://example.edu"))
}

func TestLooksLikePID(t *testing.T) {
	assert.True(t, util.LooksLikePID("etd:1234"))
	assert.True(t, util.LooksLikePID("etd:a1b2c3d4-0000-4000-a000-000000000001"))
	assert.False(t, util.LooksLikePID("etd1234"))
	assert.False(t, util.LooksLikePID(""))
}

func TestCleanString(t *testing.T) {
	clean := util.CleanString("  spaces \t\n ")
	if clean != "spaces" {
		t.Error("Expected to receive string 'spaces'")
	}
	clean = util.CleanString("  ' embedded spaces 1 '   ")
	if clean != " embedded spaces 1 " {
		t.Error("Expected to receive string ' embedded spaces 1 '")
	}
	clean = util.CleanString("  \" embedded spaces 2 \"   ")
	if clean != " embedded spaces 2 " {
		t.Error("Expected to receive string ' embedded spaces '")
	}
}

func TestStripControlCharacters(t *testing.T) {
	assert.Equal(t, "Page onePage two", util.StripControlCharacters("Page one\n\fPage two\r\n"))
	assert.Equal(t, "tabbed", util.StripControlCharacters("\ttab\u0000bed\u001F"))
	assert.Equal(t, "", util.StripControlCharacters("\n\n\f"))
	assert.Equal(t, "Ünïcödé stays", util.StripControlCharacters("Ünïcödé stays"))
}

func TestContainsControlCharacter(t *testing.T) {
	assert.True(t, util.ContainsControlCharacter("\u0000 -- NULL"))
	assert.True(t, util.ContainsControlCharacter("\u0007 -- BELL"))
	assert.True(t, util.ContainsControlCharacter("\u0009 -- CHARACTER TABULATION"))
	assert.True(t, util.ContainsControlCharacter("\u000C -- FORM FEED (FF)"))
	assert.True(t, util.ContainsControlCharacter("\u001F -- UNIT SEPARATOR"))
	assert.False(t, util.ContainsControlCharacter("  -- SPACE"))
	assert.False(t, util.ContainsControlCharacter("No control characters here"))
}

func TestStringListContains(t *testing.T) {
	list := []string{"apple", "orange", "banana"}
	assert.True(t, util.StringListContains(list, "orange"))
	assert.False(t, util.StringListContains(list, "wedgie"))
	assert.False(t, util.StringListContains(nil, "mars"))
}

func TestReplaceTokens(t *testing.T) {
	template := `<rdf:Description rdf:about="info:fedora/$PID$/PDF"><embargo>$EMBARGO$</embargo></rdf:Description>`
	out := util.ReplaceTokens(template, map[string]string{
		"$PID$":     "etd:42",
		"$EMBARGO$": "2030-01-01T00:00:00Z",
	})
	assert.Equal(t, `<rdf:Description rdf:about="info:fedora/etd:42/PDF"><embargo>2030-01-01T00:00:00Z</embargo></rdf:Description>`, out)
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/fedora/objects/etd:42",
		util.ObjectURL("http://localhost:8080/fedora/", "etd:42"))
}
